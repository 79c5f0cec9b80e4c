package sim

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ensemble", func() {
	var e *Ensemble

	BeforeEach(func() {
		e = NewEnsemble()
	})

	AfterEach(func() {
		e.Close()
	})

	It("indexes members by name", func() {
		e.Add(NewVoltage())
		e.Add(NewTemperature(WithName("t1")))
		e.Add(NewTemperature(WithName("t2")))

		Expect(e.Len()).To(Equal(3))
		Expect(e.Names()).To(Equal([]string{"t1", "t2", "voltage"}))

		s, ok := e.Get("t2")
		Expect(ok).To(BeTrue())
		Expect(s.Name()).To(Equal("t2"))

		_, ok = e.Get("missing")
		Expect(ok).To(BeFalse())
	})

	It("starts and stops every member", func() {
		var ticks atomic.Int64
		for _, name := range []string{"a", "b", "c"} {
			s := NewTemperature(WithName(name))
			s.SetInterval(5 * time.Millisecond)
			s.RegisterCallback(func(float64) { ticks.Add(1) })
			e.Add(s)
		}

		e.StartAll()
		for _, name := range e.Names() {
			s, _ := e.Get(name)
			Expect(s.IsRunning()).To(BeTrue())
		}
		Eventually(ticks.Load).Should(BeNumerically(">", 6))

		e.StopAll()
		for _, name := range e.Names() {
			s, _ := e.Get(name)
			Expect(s.IsRunning()).To(BeFalse())
		}
		seen := ticks.Load()
		Consistently(ticks.Load, 50*time.Millisecond, 10*time.Millisecond).Should(Equal(seen))
	})

	It("reports current values", func() {
		e.Add(NewVoltage())
		e.Add(NewTemperature())

		Expect(e.Values()).To(Equal(map[string]float64{"voltage": 0, "temperature": 20}))
	})

	It("stops a member it replaces", func() {
		old := NewVoltage()
		old.SetInterval(5 * time.Millisecond)
		e.Add(old)
		e.StartAll()

		e.Add(NewVoltage())
		Expect(old.IsRunning()).To(BeFalse())

		s, _ := e.Get("voltage")
		Expect(s).NotTo(BeIdenticalTo(old))
	})
})
