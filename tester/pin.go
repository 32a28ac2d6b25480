package tester

// Pin is an output pin that records every level it is set to.
type Pin struct {
	Name   string
	High   bool
	Levels []bool

	// OnSet, if set, is called after every change, e.g. to log coil activity.
	OnSet func(p *Pin)
}

func (p *Pin) Set(high bool) {
	p.High = high
	p.Levels = append(p.Levels, high)
	if p.OnSet != nil {
		p.OnSet(p)
	}
}
