package adapt

import (
	"github.com/cpswtree/catree/pkg/ca"
)

// binding is one channel of a leaf.
type binding struct {
	path   *Path
	suffix string
	name   string
	pv     ca.PV
}

func newBinding(p *Path, suffix string, needCtrl bool) binding {
	form := ca.FormNative
	if needCtrl {
		form = ca.FormCtrl
	}
	name := p.Hash(suffix)
	pv := p.adapter.client.GetPV(name, form, 0)
	p.adapter.debug("made PV", "name", name, "path", p.String(), "suffix", suffix, "form", form)
	return binding{path: p, suffix: suffix, name: name, pv: pv}
}

// Name returns the channel name.
func (b *binding) Name() string {
	return b.name
}

// Path returns the bound path.
func (b *binding) Path() *Path {
	return b.path
}

// PV returns the channel handle.
func (b *binding) PV() ca.PV {
	return b.pv
}

// ConnectionName returns the externally visible name the channel was
// derived from.
func (b *binding) ConnectionName() string {
	return b.path.GetFull(b.suffix)
}
