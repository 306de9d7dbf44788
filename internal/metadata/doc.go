// Package metadata resolves bibliographic details for a paper URL.
//
// Resolution walks an ordered chain of sources, each filling in only the
// fields the previous sources left empty. The chain never fails: a source
// that errors or returns nothing simply yields to the next one, and a URL
// no source recognizes resolves to an empty result.
package metadata
