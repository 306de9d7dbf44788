// Package pagecache is the fast tier of reading-position persistence:
// a small JSON file mapping paper IDs to the last page the reader was
// on. Writes land here synchronously on every page turn; the durable
// store only sees the debounced value. On session load the cache wins
// over the durable record because it may hold activity the debounce
// never flushed.
package pagecache
