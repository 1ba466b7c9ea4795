// Package skobject builds sourcekitd requests from Go values.
//
// The package has two parts:
//   - Interner and UID wrap the daemon's identifier table
//   - Builder and Object convert Go values into request handles and own them
//
// Anything implementing Convertible can be turned into a request value.
// Primitive kinds (Int, Int64, String, UID, Ident, *Object) convert directly;
// composite kinds (Array, Dict, Map, UIDMap) convert their children first and
// then create the composite. Children are checked at compile time through the
// type parameters, so an Array of a non-convertible type does not build.
//
// # Quick Start
//
//	d := inmem.New()
//	b := skobject.NewBuilder(d)
//
//	req, err := b.Dict(
//	    skobject.Entry("key.request", skobject.Ident("source.request.editor.formattext")),
//	    skobject.Entry("key.line", skobject.Int(10)),
//	    skobject.Entry("key.editor.format.options", skobject.Dict{
//	        skobject.Entry("key.editor.format.usetabs", skobject.Int(1)),
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer req.Release()
//
//	fmt.Println(req)
//	// {
//	//   key.request: source.request.editor.formattext,
//	//   key.line: 10,
//	//   key.editor.format.options: {
//	//     key.editor.format.usetabs: 1
//	//   }
//	// }
//
// # Ownership
//
// An Object owns exactly one reference to its handle and gives it back on
// Release. Every conversion hands the caller a fresh reference; composites
// drop their temporary child references once the composite holds them, on
// success and on every error path. Objects are not safe for concurrent use.
// The Interner is.
//
// # Errors
//
// Conversion failures are returned as *ConversionError, wrapping ErrNoHandle
// when the daemon refused to create a value and ErrKindMismatch when a value
// has no request representation. Interner.Intern panics when the daemon cannot
// intern a string; see WithRecoverableIntern to turn that into an error.
package skobject
