package engine

// Callback observes a finished execution exactly once.
// On failure err is a *ProcessError and res holds the partial result.
type Callback func(res *Result, err error)

// CallbackDecorator wraps a callback with additional behavior.
// next may be nil when the process has no callback of its own.
type CallbackDecorator func(next Callback) Callback

// Decorate folds decorators around cb in list order: each decorator wraps
// the callback built so far, so the last decorator is outermost and its
// behavior runs first.
func Decorate(cb Callback, decorators ...CallbackDecorator) Callback {
	for _, d := range decorators {
		cb = d(cb)
	}
	return cb
}

// DecoratorFrom turns a plain callback into a decorator that runs fn and
// then the wrapped callback.
func DecoratorFrom(fn Callback) CallbackDecorator {
	return func(next Callback) Callback {
		return func(res *Result, err error) {
			fn(res, err)
			if next != nil {
				next(res, err)
			}
		}
	}
}

// Factory builds processes whose callbacks carry a fixed decorator list.
type Factory struct {
	decorators []CallbackDecorator
}

// NewFactory creates a factory applying decorators to every process.
func NewFactory(decorators ...CallbackDecorator) *Factory {
	return &Factory{decorators: append([]CallbackDecorator(nil), decorators...)}
}

// NewProcess creates a process whose callback is decorated with the
// factory's decorators. The fold happens once, here.
func (f *Factory) NewProcess(name string, units []Unit, opts ...ProcessOption) *Process {
	p := NewProcess(name, units, opts...)
	p.callback = Decorate(p.callback, f.decorators...)
	return p
}
