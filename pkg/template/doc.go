// Package template renders notification message templates.
//
// Templates use {{path.to.value}} placeholders that resolve through nested
// maps. A business context (shop name, phone, hours, ...) is merged into
// every render under the business.* namespace, so individual callers never
// have to supply it.
//
// The package is pure: it never talks to a store or a provider. Template
// persistence is owned by an external repository; the engine only consumes
// read-only Template values.
//
// # Basic Usage
//
//	engine := template.New(template.BusinessContext{
//	    Name:  "Happy Paws Grooming",
//	    Phone: "+1 555 0100",
//	})
//
//	out, err := engine.Render(tpl, map[string]any{
//	    "pet_name": "Buddy",
//	})
//
// Besides rendering, the engine validates variable usage against a
// template's declared variable list and estimates SMS cost: a worst-case
// character count (declared max lengths plus link-shortener placeholders)
// and the resulting segment count.
package template
