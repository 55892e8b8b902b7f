// Package contentbox renders AFX markup to HTML through the Fusion
// configuration language.
//
// A template is transpiled to Fusion, assigned to the "html" entry point and
// merged with the other definition sources before it is evaluated:
//
//	renderer := contentbox.MustNew()
//	props := "name: World"
//	html, err := renderer.Render(ctx, contentbox.Bindings{}, "<div>Hello {props.name}</div>", &props)
//	// html: "<div>Hello World</div>"
//
// # Definition Sources
//
// Sources are merged in a fixed order; later sources override earlier ones
// for the same path:
//
//  1. the root definitions of the site bound to the render
//  2. prototypes generated from node type definitions
//  3. the Root.fusion of every auto-included package
//  4. the built-in ContentBox prototypes
//  5. the transpiled template
//
// Site defaults therefore never override built-in prototypes or the template.
//
// # Bindings
//
// props holds the decoded props mapping. node, documentNode and site are
// bound when the corresponding field of Bindings is non-empty. The site
// binding also selects the site whose root definitions are loaded:
//
//	renderer := contentbox.MustNew(
//	    contentbox.WithSites(contentbox.Site{NodeName: "acme", PackageKey: "Acme.Site"}),
//	    contentbox.WithResourcePackage("Acme.Site", os.DirFS("./Acme.Site")),
//	)
//	html, err := renderer.Render(ctx, contentbox.Bindings{Site: "acme", Node: node}, markup, nil)
//
// # Error Handling
//
// Every failure is a *RenderingError. Malformed markup is a transpile failure,
// everything after transpilation is an evaluation failure:
//
//	var renderErr *contentbox.RenderingError
//	if errors.As(err, &renderErr) && renderErr.IsTranspileFailure() {
//	    // renderErr.Code == contentbox.CodeTranspileFailure
//	}
//
// RenderOrInline and RenderError turn a failure into an escaped inline
// fragment that can be embedded in a page.
//
// # Extensions
//
// Eel helpers and Fusion object implementations are registered with
// WithHelper and WithImplementation. Node types are turned into prototypes
// with a NodeTypeRegistry passed to WithNodeTypes.
package contentbox
