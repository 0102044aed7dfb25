package script

import (
	"github.com/evanw/esbuild/pkg/api"
)

// The submitted source is wrapped in an implicit async function body
// before translation, so top-level return and await are valid and every
// script throw becomes a rejection rather than an interpreter panic.
//
// The whole program evaluates to an arrow function that the engine
// calls with its completion callback. The callback is never installed
// as a global, and the async body redeclares __settle and __done as
// shadowing parameters, so script code cannot reach the real callback
// under either name. Arrow functions carry no arguments object, which
// closes that route too.
const (
	wrapperPrefix = "((__settle) => {\n" +
		"const __p = (async (__settle, __done) => {\n"
	wrapperSuffix = "\n})();\n" +
		"__p.then((v) => { __settle(null, v); }, " +
		"(e) => { __settle(e instanceof Error ? (e.stack || String(e)) : String(e), null); });\n" +
		"})"

	// wrapperLineOffset is the number of lines the prefix adds before
	// the submitted source; subtracted from reported error positions.
	wrapperLineOffset = 2
)

// transpile translates TypeScript source into the executable dialect.
// Failures are compilation errors with positions mapped back to the
// submitted source.
func transpile(source string) (string, *ScriptError) {
	res := api.Transform(wrapperPrefix+source+wrapperSuffix, api.TransformOptions{
		Loader:  api.LoaderTS,
		Target:  api.ES2017,
		Charset: api.CharsetUTF8,
	})
	if len(res.Errors) > 0 {
		msg := res.Errors[0]
		serr := &ScriptError{Message: msg.Text, Err: ErrCompile}
		if msg.Location != nil {
			serr.Line = msg.Location.Line - wrapperLineOffset
			serr.Column = msg.Location.Column + 1
		}
		return "", serr
	}
	return string(res.Code), nil
}
