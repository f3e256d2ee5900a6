package report

import (
	"sync"
)

// Phase can be embedded in a phase to attach data points to its report entry
type Phase struct {
	props     map[string]interface{}
	propmutex sync.Mutex
}

// IncProp increases a numeric data point, creating one if it didn't exist
func (p *Phase) IncProp(key string) {
	p.propmutex.Lock()
	defer p.propmutex.Unlock()

	if p.props == nil {
		p.props = make(map[string]interface{})
	}

	var val uint32
	if v, ok := p.props[key].(uint32); ok {
		val = v
	}

	val++
	p.props[key] = val
}

// SetProp sets a value to a datapoint by key
func (p *Phase) SetProp(key string, value interface{}) {
	p.propmutex.Lock()
	defer p.propmutex.Unlock()

	if p.props == nil {
		p.props = make(map[string]interface{})
	}

	p.props[key] = value
}

// Props returns a copy of the data points
func (p *Phase) Props() map[string]interface{} {
	p.propmutex.Lock()
	defer p.propmutex.Unlock()

	if len(p.props) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(p.props))
	for k, v := range p.props {
		out[k] = v
	}
	return out
}
