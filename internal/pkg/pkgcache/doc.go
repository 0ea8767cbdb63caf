// Package pkgcache provides an in-process expiring key/value cache.
//
// Entries are retained until either time bound is exceeded (age since write,
// or idle time since the last read/write) and the cache evicts least recently
// used entries first when it grows past its maximum size. The cache never
// performs I/O; callers own population and invalidation (cache-aside).
package pkgcache
