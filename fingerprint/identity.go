package fingerprint

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// AnonymousName is the identity string every anonymous callable shares.
const AnonymousName = "<anonymous>"

// Identity names a callable for fingerprinting. It is either Named(qualified
// name) or Anonymous. Anonymous callables all share one identity and are told
// apart by their arguments only.
type Identity struct {
	name string // empty means anonymous
}

// Anonymous is the shared identity of callables without a stable name.
var Anonymous = Identity{}

// Named returns the identity for a qualified callable name.
// An empty name is Anonymous.
func Named(name string) Identity { return Identity{name: name} }

func (id Identity) IsAnonymous() bool { return id.name == "" }

func (id Identity) String() string {
	if id.name == "" {
		return AnonymousName
	}
	return id.name
}

// ClosurePolicy decides the identity of function literals.
type ClosurePolicy int

const (
	// ClosuresAnonymous collapses every function literal to Anonymous.
	ClosuresAnonymous ClosurePolicy = iota
	// ClosuresByLiteral names a function literal by its compiler symbol
	// (pkg.Outer.func1). Closures built from the same literal by different
	// outer invocations still share that name.
	ClosuresByLiteral
)

// literal matches the package-local part of a function literal's symbol:
// Outer.func1, Outer.func1.2, glob..func3, init.func1. A declared top-level
// function named func1 has no enclosing name and does not match.
var literal = regexp.MustCompile(`^.+\.func\d+(\.\d+)*$`)

// isLiteral reports whether a runtime symbol names a function literal.
// The import path is dropped first; dots in its last element are escaped by
// the compiler, so the first dot after the last slash ends the package name.
func isLiteral(symbol string) bool {
	local := symbol[strings.LastIndex(symbol, "/")+1:]
	i := strings.IndexByte(local, '.')
	if i < 0 {
		return false
	}
	return literal.MatchString(local[i+1:])
}

// Of resolves the identity of fn from its runtime symbol. Method values drop
// their receiver: (*T).Get bound to two instances yields one identity.
// Of panics if fn is not a non-nil func.
func Of(fn any, policy ClosurePolicy) Identity {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		panic("fingerprint: Of needs a non-nil func, got " + reflect.TypeOf(fn).String())
	}
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return Anonymous
	}
	name := strings.TrimSuffix(f.Name(), "-fm")
	if policy == ClosuresAnonymous && isLiteral(name) {
		return Anonymous
	}
	return Named(name)
}
