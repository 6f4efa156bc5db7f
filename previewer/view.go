package previewer

import "github.com/squirreljetpack/matchmaker/text"

// View is the consumer side of the previewer: the render task reads the
// current contents and a swap-read changed flag through it.
type View struct {
	p *Previewer
}

// Results returns the text override when one is installed, otherwise the
// streamed buffer contents.
func (v *View) Results() text.Text {
	v.p.override.Lock()
	if v.p.hasOver {
		t := v.p.textOver
		v.p.override.Unlock()
		return t
	}
	v.p.override.Unlock()

	lines := v.p.buf.Snapshot()
	return text.Text(lines)
}

// Len returns the number of lines currently available.
func (v *View) Len() int {
	v.p.override.Lock()
	if v.p.hasOver {
		n := len(v.p.textOver)
		v.p.override.Unlock()
		return n
	}
	v.p.override.Unlock()
	return v.p.buf.Len()
}

// Changed swap-reads the "changed since last paint" flag.
func (v *View) Changed() bool {
	return v.p.changed.Swap(false)
}
