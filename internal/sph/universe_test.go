package sph_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/spherro/internal/sph"
)

var _ = Describe("Universe", func() {
	const dt = 0.001

	var (
		u      *sph.Universe
		params sph.Params
	)

	newUniverse := func(ps []sph.Particle, opts ...sph.Option) *sph.Universe {
		uni, err := sph.New(700, 700, ps, opts...)
		Expect(err).NotTo(HaveOccurred())
		return uni
	}

	BeforeEach(func() {
		params = sph.DefaultParams()
	})

	Context("with two particles outside each other's support", func() {
		BeforeEach(func() {
			u = newUniverse([]sph.Particle{
				sph.NewParticle(100, 350, 100),
				sph.NewParticle(100+3*params.H, 350, 100),
			})
			u.Step(dt)
		})

		It("computes zero density and the under-dense pressure", func() {
			for _, p := range u.Particles() {
				Expect(p.Rho).To(BeZero())
				Expect(p.Pressure).To(BeNumerically("~", -params.Stiffness, 1e-12))
			}
		})

		It("accelerates them by gravity alone", func() {
			for _, p := range u.Particles() {
				Expect(p.Vel.X).To(BeZero())
				Expect(p.Vel.Y).To(BeNumerically("~", params.Gravity*dt, 1e-9))
			}
		})

		It("stays stable", func() {
			Expect(u.IsUnstable()).To(BeFalse())
			Expect(u.Validate()).To(Succeed())
		})
	})

	Context("with an external force near a particle", func() {
		var before r2.Vec

		BeforeEach(func() {
			u = newUniverse([]sph.Particle{sph.NewParticle(350, 350, 100)})
			before = u.Particle(0).Pos
			u.AddForce(sph.NewForce(350-40, 350-30, 2e8, 100))
			u.Step(dt)
		})

		It("pushes the particle away from the source", func() {
			away := r2.Sub(before, r2.Vec{X: 310, Y: 320})
			v := u.Particle(0).Vel
			// Remove gravity's contribution before comparing directions.
			v.Y -= params.Gravity * dt
			Expect(r2.Dot(v, away)).To(BeNumerically(">", 0))
			Expect(math.Abs(v.X*away.Y - v.Y*away.X)).To(BeNumerically("<", 1e-6))
		})

		It("forgets the force once cleared", func() {
			u.ClearForces()
			vx := u.Particle(0).Vel.X
			u.Step(dt)
			Expect(u.Particle(0).Vel.X).To(BeNumerically("~", vx, 1e-9))
		})
	})

	Context("population events", func() {
		BeforeEach(func() {
			u = newUniverse(nil, sph.WithSeed(3))
		})

		It("does not touch the collection until the step ends", func() {
			Expect(u.QueueSpawn(5, 25, 675)).To(Succeed())
			Expect(u.ParticleCount()).To(Equal(0))
			Expect(u.PendingDelta()).To(Equal(5))

			u.Step(dt)
			Expect(u.ParticleCount()).To(Equal(5))
			Expect(u.PendingDelta()).To(Equal(0))
		})

		It("places spawned particles within the jitter radius", func() {
			Expect(u.QueueSpawn(20, 200, 200)).To(Succeed())
			u.Step(dt)
			for _, p := range u.Particles() {
				Expect(r2.Norm(r2.Sub(p.Pos, r2.Vec{X: 200, Y: 200}))).To(BeNumerically("<=", params.SpawnJitter))
			}
		})

		It("rejects a despawn larger than the population", func() {
			Expect(u.QueueSpawn(2, 200, 200)).To(Succeed())
			u.Step(dt)

			Expect(u.QueueDespawn(3)).To(Succeed())
			u.Step(dt)

			Expect(u.ParticleCount()).To(Equal(2))
			Expect(u.LastReport().Rejected).To(HaveLen(1))
			Expect(u.LastReport().Rejected[0]).To(MatchError(sph.ErrDespawnTooMany))
		})

		It("rejects negative counts up front", func() {
			Expect(u.QueueDespawn(-1)).To(MatchError(sph.ErrInvalidEvent))
			Expect(u.QueueSpawn(-1, 0, 0)).To(MatchError(sph.ErrInvalidEvent))
		})
	})

	Context("with a particle that has left the domain", func() {
		It("turns its velocity back toward the domain", func() {
			u = newUniverse([]sph.Particle{{
				Pos:  r2.Vec{X: 710, Y: 350},
				Vel:  r2.Vec{X: 50},
				Mass: 100,
			}})
			u.Step(dt)
			Expect(u.Particle(0).Vel.X).To(BeNumerically("<=", -params.MinBounce))
		})
	})

	Context("with a diverged particle", func() {
		It("is reported through Validate, not a panic", func() {
			u = newUniverse([]sph.Particle{{Pos: r2.Vec{X: math.Inf(1), Y: 0}, Mass: 1}})
			Expect(func() { u.Step(dt) }).NotTo(Panic())
			Expect(u.IsUnstable()).To(BeTrue())
			Expect(u.Validate()).To(MatchError(sph.ErrUnstable))
		})
	})
})
