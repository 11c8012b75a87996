package value

import "github.com/joeycumines/jsrt/gc"

// ExoticKind tags the alternative internal behavior an Object carries, per
//. The property map is shared across all kinds; only the
// exotic payload and a handful of internal methods differ.
type ExoticKind uint8

const (
	Ordinary ExoticKind = iota
	ArrayKind
	FunctionKind
	MapKind
	SetKind
	DateKind
	RegExpKind
	GeneratorKind
	PromiseKind
	EnvironmentKind
)

// Property is a full property descriptor. Accessor properties carry
// Get/Set object handles and ignore Val; data properties carry Val and
// leave Get/Set nil.
type Property struct {
	Val Value
	Get, Set gc.Handle
	HasGet bool
	HasSet bool
	Writable bool
	Enumerable bool
	Configurable bool
}

// IsAccessor reports whether p is a getter/setter pair rather than a data
// property.
func (p Property) IsAccessor() bool { return p.HasGet || p.HasSet }

// Object is the single representation behind every JS object: a
// prototype link, bits, a property map, and an exotic payload selected
// by Exotic. It implements gc.Tracer so the heap can mark through it.
type Object struct {
	Proto gc.Handle
	HasProto bool // false + NullProto=false means "never set" (fresh ordinary object uses default %Object.prototype%, installed by the caller)
	NullProto bool // explicit null-prototype marker (Object.create(null))
	Extensible bool
	Frozen bool
	Sealed bool
	Exotic ExoticKind

	keys []PropertyKey // insertion order, for for-in / Object.keys
	props map[string]*Property
	// canon maps PropertyKey.String to the canonical key actually
	// stored, letting us preserve structural identity for symbol/index
	// keys while still using a Go map for O(1) lookup.
	canon map[string]PropertyKey

	// Exotic payloads. Exactly one is populated, selected by Exotic.
	Array *ArrayData
	Function *FunctionData
	MapData *MapData
	SetData *SetData
	Date *DateData
	RegExp *RegExpData
	Generator *GeneratorData
	Promise *PromiseData
	Environment *EnvironmentData

	// owners holds extra Value-typed references (e.g. a not-yet-installed
	// handler closure) that must stay alive; surfaced via Trace.
	owners []Value
}

// NewOrdinary allocates a fresh, extensible Ordinary object with no
// prototype set (callers install one, typically %Object.prototype%, via
// SetProto).
func NewOrdinary() *Object {
	return &Object{Extensible: true, props: map[string]*Property{}, canon: map[string]PropertyKey{}}
}

// SetProto installs o's prototype link.
func (o *Object) SetProto(h gc.Handle) {
	o.Proto = h
	o.HasProto = true
	o.NullProto = false
}

// SetNullProto marks o as having an explicit null prototype
// (Object.create(null)).
func (o *Object) SetNullProto() {
	o.Proto = gc.Handle{}
	o.HasProto = false
	o.NullProto = true
}

// OwnKeys returns o's own property keys in insertion order (the order
// for-in and Object.keys must preserve).
func (o *Object) OwnKeys() []PropertyKey {
	out := make([]PropertyKey, len(o.keys))
	copy(out, o.keys)
	return out
}

// GetOwn returns the own property descriptor for key, if any.
func (o *Object) GetOwn(key PropertyKey) (Property, bool) {
	p, ok := o.props[key.String()]
	if !ok {
		return Property{}, false
	}
	return *p, true
}

// DefineOwn installs or overwrites an own property descriptor,
// maintaining insertion order for first-time keys. Callers are
// responsible for enforcing frozen/sealed/writable checks (see
// jsrt/interp's SetProperty, which is where this module's write semantics
// live); DefineOwn itself is the low-level, unconditional primitive.
func (o *Object) DefineOwn(key PropertyKey, p Property) {
	k := key.String()
	if _, exists := o.props[k]; !exists {
		o.keys = append(o.keys, key)
		o.canon[k] = key
	}
	pp := p
	o.props[k] = &pp
	if o.Exotic == ArrayKind && key.Kind() == KeyIndex {
		if key.Index()+1 > o.Array.Length {
			o.Array.Length = key.Index() + 1
		}
	}
}

// DeleteOwn removes an own property. Returns false if it was
// non-configurable (caller must turn that into a TypeError in strict
// mode per this module).
func (o *Object) DeleteOwn(key PropertyKey) bool {
	k := key.String()
	p, ok := o.props[k]
	if !ok {
		return true
	}
	if !p.Configurable {
		return false
	}
	delete(o.props, k)
	delete(o.canon, k)
	for i, kk := range o.keys {
		if kk.Equal(key) {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Own registers an auxiliary ownership edge, per this module's
// parent.own(child, &heap) — used to keep a Value alive that is not yet
// reachable through the ordinary property graph.
func (o *Object) Own(child Value) {
	o.owners = append(o.owners, child)
}

// Trace implements gc.Tracer.
func (o *Object) Trace(visit func(gc.Handle)) {
	if o.HasProto {
		visit(o.Proto)
	}
	for _, p := range o.props {
		if p.IsAccessor() {
			if p.HasGet {
				visit(p.Get)
			}
			if p.HasSet {
				visit(p.Set)
			}
		} else if p.Val.IsObject() {
			visit(p.Val.AsObject())
		}
	}
	for _, v := range o.owners {
		if v.IsObject() {
			visit(v.AsObject())
		}
	}
	o.traceExotic(visit)
}

func (o *Object) traceExotic(visit func(gc.Handle)) {
	switch o.Exotic {
	case FunctionKind:
		if o.Function != nil {
			o.Function.trace(visit)
		}
	case MapKind:
		if o.MapData != nil {
			o.MapData.trace(visit)
		}
	case SetKind:
		if o.SetData != nil {
			o.SetData.trace(visit)
		}
	case GeneratorKind:
		if o.Generator != nil {
			o.Generator.trace(visit)
		}
	case PromiseKind:
		if o.Promise != nil {
			o.Promise.trace(visit)
		}
	case EnvironmentKind:
		if o.Environment != nil {
			o.Environment.trace(visit)
		}
	}
}

// Reset implements gc.Tracer's Reset contract: produce a
// pristine Ordinary object, safe to apply even to a handle that is now
// dangling.
func (o *Object) Reset() {
	*o = Object{props: map[string]*Property{}, canon: map[string]PropertyKey{}, Extensible: true}
}

// TakeAbandon implements jsrt/gc's unexported abandoner interface. A
// Generator object being swept while its body is still suspended mid-yield
// would otherwise leak the goroutine backing it forever; grab the driver
// now, before Reset wipes o.Generator, and return a callback that unwinds
// it once the sweep that's collecting this object has finished.
func (o *Object) TakeAbandon() func() {
	if o.Exotic == GeneratorKind && o.Generator != nil && o.Generator.Driver != nil {
		driver := o.Generator.Driver
		return driver.Abandon
	}
	return nil
}

var _ gc.Tracer = (*Object)(nil)
