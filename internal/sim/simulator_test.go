package sim

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Simulator", func() {
	Describe("construction", func() {
		It("uses the voltage defaults", func() {
			s := NewVoltage()
			snap := s.Snapshot()
			Expect(snap.Interval).To(Equal(time.Second))
			Expect(snap.Min).To(Equal(0.0))
			Expect(snap.Max).To(Equal(10.0))
			Expect(snap.Step).To(Equal(0.1))
			Expect(snap.Value).To(Equal(0.0))
			Expect(snap.Running).To(BeFalse())
			Expect(s.Name()).To(Equal("voltage"))
		})

		It("uses the temperature defaults", func() {
			s := NewTemperature()
			snap := s.Snapshot()
			Expect(snap.Interval).To(Equal(time.Second))
			Expect(snap.Min).To(Equal(20.0))
			Expect(snap.Max).To(Equal(100.0))
			Expect(snap.Step).To(Equal(0.5))
			Expect(snap.Value).To(Equal(20.0))
		})

		It("clamps a start value outside the bounds", func() {
			v := Voltage
			v.Defaults.Start = 42
			Expect(New(v).Value()).To(Equal(10.0))
		})

		It("honours WithName", func() {
			Expect(NewTemperature(WithName("furnace")).Name()).To(Equal("furnace"))
		})
	})

	Describe("Step", func() {
		It("walks 50 fixed +1 ticks to 5.0 with 50 callbacks", func() {
			s := NewVoltage(WithPerturbation(Fixed(1)))
			calls := 0
			s.RegisterCallback(func(float64) { calls++ })

			for i := 0; i < 50; i++ {
				s.Step()
			}

			Expect(s.Value()).To(BeNumerically("~", 5.0, 1e-9))
			Expect(calls).To(Equal(50))
			Expect(s.Ticks()).To(Equal(uint64(50)))
		})

		It("pins an overshoot exactly at the max bound", func() {
			s := NewVoltage(WithPerturbation(Fixed(1)))
			s.SetMax(0.05)

			Expect(s.Step()).To(Equal(0.05))
			Expect(s.Value()).To(Equal(0.05))
		})

		It("pins an undershoot exactly at the min bound", func() {
			s := NewTemperature(WithPerturbation(Fixed(-1)))
			s.SetStep(3)

			Expect(s.Step()).To(Equal(20.0))
		})

		It("checks max before min when the range is inverted", func() {
			s := NewVoltage(WithPerturbation(Fixed(1)))
			s.SetMin(5)
			s.SetMax(1)

			Expect(s.Step()).To(Equal(5.0))
			Expect(s.Step()).To(Equal(1.0))
		})

		It("passes the new value to the observer", func() {
			s := NewVoltage(WithPerturbation(Fixed(1)))
			var got []float64
			s.RegisterCallback(func(v float64) { got = append(got, v) })

			s.Step()
			s.Step()

			Expect(got).To(HaveLen(2))
			Expect(got[0]).To(BeNumerically("~", 0.1, 1e-12))
			Expect(got[1]).To(BeNumerically("~", 0.2, 1e-12))
		})

		DescribeTable("keeps the value within bounds",
			func(v Variant, seed int64) {
				s := New(v, WithSeed(seed))
				s.SetStep(v.Defaults.Max - v.Defaults.Min)
				for i := 0; i < 2000; i++ {
					got := s.Step()
					Expect(got).To(BeNumerically(">=", v.Defaults.Min))
					Expect(got).To(BeNumerically("<=", v.Defaults.Max))
				}
			},
			Entry("voltage", Voltage, int64(1)),
			Entry("voltage, other seed", Voltage, int64(99)),
			Entry("temperature", Temperature, int64(7)),
		)

		It("is reproducible for a given seed", func() {
			a := NewTemperature(WithSeed(42))
			b := NewTemperature(WithSeed(42))
			for i := 0; i < 20; i++ {
				Expect(a.Step()).To(Equal(b.Step()))
			}
		})
	})

	Describe("parameters", func() {
		It("applies and reads settings as a group", func() {
			s := NewVoltage()
			want := Settings{Interval: 250 * time.Millisecond, Min: -1, Max: 1, Step: 0.25}
			s.Apply(want)

			Expect(s.Settings()).To(Equal(want))
			Expect(s.Interval()).To(Equal(250 * time.Millisecond))
		})

		It("updates single parameters", func() {
			s := NewTemperature()
			s.SetInterval(10 * time.Millisecond)
			s.SetMin(-5)
			s.SetMax(5)
			s.SetStep(2)

			Expect(s.Settings()).To(Equal(Settings{Interval: 10 * time.Millisecond, Min: -5, Max: 5, Step: 2}))
		})
	})

	Describe("lifecycle", func() {
		var (
			s     *Simulator
			calls atomic.Int64
		)

		BeforeEach(func() {
			calls.Store(0)
			s = NewVoltage(WithSeed(1))
			s.SetInterval(5 * time.Millisecond)
			s.RegisterCallback(func(float64) { calls.Add(1) })
		})

		AfterEach(func() {
			s.Close()
		})

		It("starts and stops", func() {
			Expect(s.IsRunning()).To(BeFalse())
			s.Start()
			Expect(s.IsRunning()).To(BeTrue())
			Eventually(calls.Load).Should(BeNumerically(">", 2))
			s.Stop()
			Expect(s.IsRunning()).To(BeFalse())
		})

		It("runs a single loop when started twice", func() {
			s.SetInterval(50 * time.Millisecond)
			s.Start()
			s.Start()
			time.Sleep(275 * time.Millisecond)
			s.Stop()

			Expect(calls.Load()).To(BeNumerically(">=", 3))
			Expect(calls.Load()).To(BeNumerically("<=", 8))
		})

		It("tolerates repeated stops", func() {
			s.Stop()
			s.Start()
			s.Stop()
			s.Stop()
			Expect(s.IsRunning()).To(BeFalse())
		})

		It("stays silent after Stop returns", func() {
			s.Start()
			Eventually(calls.Load).Should(BeNumerically(">", 3))
			s.Stop()

			seen := calls.Load()
			Consistently(calls.Load, 100*time.Millisecond, 10*time.Millisecond).Should(Equal(seen))
		})

		It("can be restarted", func() {
			s.Start()
			Eventually(calls.Load).Should(BeNumerically(">", 1))
			s.Stop()
			seen := calls.Load()

			s.Start()
			Eventually(calls.Load).Should(BeNumerically(">", seen))
		})

		It("stops promptly at a zero interval", func() {
			s.Start()
			Eventually(calls.Load).Should(BeNumerically(">", 0))
			s.SetInterval(0)
			time.Sleep(10 * time.Millisecond)

			start := time.Now()
			s.Stop()
			Expect(time.Since(start)).To(BeNumerically("<", 200*time.Millisecond))
		})

		It("does not wait out a long interval on Stop", func() {
			s.SetInterval(time.Hour)
			s.Start()
			Eventually(calls.Load).Should(Equal(int64(1)))

			start := time.Now()
			s.Stop()
			Expect(time.Since(start)).To(BeNumerically("<", 200*time.Millisecond))
		})

		It("picks up new bounds while running", func() {
			s.Start()
			s.Apply(Settings{Interval: time.Millisecond, Min: 3, Max: 3, Step: 0.1})
			Eventually(s.Value).Should(Equal(3.0))
		})

		It("reports running in the snapshot", func() {
			s.Start()
			Expect(s.Snapshot().Running).To(BeTrue())
			s.Stop()
			Expect(s.Snapshot().Running).To(BeFalse())
		})

		It("silences the previous observer once replaced", func() {
			s.Start()
			Eventually(calls.Load).Should(BeNumerically(">", 1))

			var other atomic.Int64
			s.RegisterCallback(func(float64) { other.Add(1) })
			seen := calls.Load()

			Eventually(other.Load).Should(BeNumerically(">", 1))
			Expect(calls.Load()).To(Equal(seen))
		})

		It("survives concurrent readers and writers", func() {
			s.SetInterval(time.Millisecond)
			s.Start()

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func(seed int64) {
					defer GinkgoRecover()
					defer wg.Done()
					r := rand.New(rand.NewSource(seed))
					for j := 0; j < 200; j++ {
						s.SetStep(r.Float64())
						v := s.Value()
						Expect(v).To(BeNumerically(">=", 0.0))
						Expect(v).To(BeNumerically("<=", 10.0))
					}
				}(int64(i))
			}
			wg.Wait()
		})

		It("serializes concurrent Start and Stop", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func() { defer wg.Done(); s.Start() }()
				go func() { defer wg.Done(); s.Stop() }()
			}
			wg.Wait()
			s.Stop()

			seen := calls.Load()
			Consistently(calls.Load, 50*time.Millisecond, 10*time.Millisecond).Should(Equal(seen))
		})
	})

	Describe("cadence", func() {
		It("approximates N x interval over N ticks", func() {
			const (
				n        = 10
				interval = 20 * time.Millisecond
			)
			s := NewVoltage()
			s.SetInterval(interval)

			var (
				mu    sync.Mutex
				stamp []time.Time
			)
			s.RegisterCallback(func(float64) {
				mu.Lock()
				stamp = append(stamp, time.Now())
				mu.Unlock()
			})
			count := func() int {
				mu.Lock()
				defer mu.Unlock()
				return len(stamp)
			}

			s.Start()
			Eventually(count, time.Second).Should(BeNumerically(">", n))
			s.Stop()

			mu.Lock()
			total := stamp[n].Sub(stamp[0])
			mu.Unlock()
			Expect(total).To(BeNumerically(">=", n*interval-5*time.Millisecond))
			Expect(total).To(BeNumerically("<", n*interval+100*time.Millisecond))
		})

		It("does not burst to catch up after a slow tick", func() {
			s := NewVoltage()
			s.SetInterval(20 * time.Millisecond)

			var (
				mu    sync.Mutex
				stamp []time.Time
			)
			s.RegisterCallback(func(float64) {
				mu.Lock()
				stamp = append(stamp, time.Now())
				n := len(stamp)
				mu.Unlock()
				if n == 1 {
					time.Sleep(60 * time.Millisecond)
				}
			})

			s.Start()
			Eventually(func() int {
				mu.Lock()
				defer mu.Unlock()
				return len(stamp)
			}, time.Second).Should(BeNumerically(">=", 3))
			s.Stop()

			mu.Lock()
			defer mu.Unlock()
			Expect(stamp[2].Sub(stamp[1])).To(BeNumerically(">=", 15*time.Millisecond))
		})
	})
})

var _ = Describe("Perturbation", func() {
	It("draws -1, 0 and +1 for Discrete", func() {
		r := rand.New(rand.NewSource(3))
		seen := map[float64]int{}
		for i := 0; i < 600; i++ {
			seen[Discrete{}.Sample(r)]++
		}
		Expect(seen).To(HaveLen(3))
		Expect(seen).To(HaveKey(-1.0))
		Expect(seen).To(HaveKey(0.0))
		Expect(seen).To(HaveKey(1.0))
	})

	It("stays within [-1, 1) for Continuous", func() {
		r := rand.New(rand.NewSource(3))
		var lo, hi float64
		for i := 0; i < 2000; i++ {
			v := Continuous{}.Sample(r)
			Expect(v).To(BeNumerically(">=", -1.0))
			Expect(v).To(BeNumerically("<", 1.0))
			lo, hi = min(lo, v), max(hi, v)
		}
		Expect(lo).To(BeNumerically("<", -0.9))
		Expect(hi).To(BeNumerically(">", 0.9))
	})

	It("returns the constant for Fixed", func() {
		Expect(Fixed(0.5).Sample(nil)).To(Equal(0.5))
	})
})
