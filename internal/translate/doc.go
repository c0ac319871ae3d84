// Package translate routes text through the installed translation
// capabilities. A Service is built once from the capability set and is
// read-only afterward, so it can be shared without locking by code that
// never mutates it.
//
// Routing is two-tier: a direct capability from the pipeline's source
// language to the target wins; otherwise the text transits through
// English (source->en, then en->target). Targets reachable by neither
// route fail with services.ErrUnsupportedLanguage.
package translate
