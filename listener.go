package metrics

// Listener is notified when metrics are added to or removed from a Registry.
// Callbacks run synchronously on the goroutine that changed the registry,
// in the order listeners were added, and must not block.
type Listener interface {
	OnGaugeAdded(Name, Gauge)
	OnGaugeRemoved(Name)
	OnCounterAdded(Name, *Counter)
	OnCounterRemoved(Name)
	OnHistogramAdded(Name, *Histogram)
	OnHistogramRemoved(Name)
	OnMeterAdded(Name, *Meter)
	OnMeterRemoved(Name)
	OnTimerAdded(Name, *Timer)
	OnTimerRemoved(Name)
}

// ListenerBase implements every Listener callback as a no-op. Embed it to
// override only the callbacks of interest.
type ListenerBase struct{}

func (ListenerBase) OnGaugeAdded(Name, Gauge)          {}
func (ListenerBase) OnGaugeRemoved(Name)               {}
func (ListenerBase) OnCounterAdded(Name, *Counter)     {}
func (ListenerBase) OnCounterRemoved(Name)             {}
func (ListenerBase) OnHistogramAdded(Name, *Histogram) {}
func (ListenerBase) OnHistogramRemoved(Name)           {}
func (ListenerBase) OnMeterAdded(Name, *Meter)         {}
func (ListenerBase) OnMeterRemoved(Name)               {}
func (ListenerBase) OnTimerAdded(Name, *Timer)         {}
func (ListenerBase) OnTimerRemoved(Name)               {}

func notifyAdded(l Listener, name Name, m Metric) {
	switch m.Kind() {
	case KindGauge:
		l.OnGaugeAdded(name, m.(Gauge))
	case KindCounter:
		c, _ := unwrapAs[*Counter](m)
		l.OnCounterAdded(name, c)
	case KindHistogram:
		h, _ := unwrapAs[*Histogram](m)
		l.OnHistogramAdded(name, h)
	case KindMeter:
		mt, _ := unwrapAs[*Meter](m)
		l.OnMeterAdded(name, mt)
	case KindTimer:
		t, _ := unwrapAs[*Timer](m)
		l.OnTimerAdded(name, t)
	default:
		unknownKind(m)
	}
}

func notifyRemoved(l Listener, name Name, m Metric) {
	switch m.Kind() {
	case KindGauge:
		l.OnGaugeRemoved(name)
	case KindCounter:
		l.OnCounterRemoved(name)
	case KindHistogram:
		l.OnHistogramRemoved(name)
	case KindMeter:
		l.OnMeterRemoved(name)
	case KindTimer:
		l.OnTimerRemoved(name)
	default:
		unknownKind(m)
	}
}
