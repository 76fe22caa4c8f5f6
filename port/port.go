package port

import fbperrors "github.com/c360/fbpcore/errors"

// Direction distinguishes an input port from an output port.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// ArityKind describes how an array port's element count behaves.
type ArityKind int

const (
	// Fixed array ports have a predetermined element count set at
	// declaration time.
	Fixed ArityKind = iota
	// Elastic array ports grow as connections are added at build time.
	Elastic
	// ConnectionIndexed array ports are sized implicitly by the index used
	// in each connect() call.
	ConnectionIndexed
)

// Arity is the arity policy for an array port.
type Arity struct {
	Kind  ArityKind
	Fixed int // only meaningful when Kind == Fixed
}

// Spec is the static declaration of a single port, the unit that makes up a
// component.Descriptor's input/output port lists.
type Spec struct {
	Name        string
	Direction   Direction
	Type        Type
	Required    bool
	Default     any // used only for In ports; meaningful only when HasDefault is set
	HasDefault  bool
	Description string
	Array       bool
	Arity       Arity
	FanOut      bool // only meaningful for Out, non-array ports
	DropOK      bool // port tolerates dropped packets on consumer-side close without a warning
}

// WithDefault returns a copy of spec carrying a default value delivered as
// an IIP when the port is left unconnected.
func (s Spec) WithDefault(value any) Spec {
	s.Default = value
	s.HasDefault = true
	return s
}

// ValidateCompatible rejects wiring an output port to an input port whose
// declared types disagree. Used by Network.Connect at build time; receive
// does not re-validate.
func ValidateCompatible(out, in Type) error {
	if !out.compatible(in) {
		return fbperrors.ErrTypeMismatch
	}
	return nil
}
