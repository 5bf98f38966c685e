// Package credstore persists the credential record (access token, refresh
// token, optional remembered login) across process restarts.
//
// Three backends ship with the package: RedisStore for deployments with a
// local or shared Redis, FileStore for plain on-disk persistence, and
// MemoryStore for tests. All of them implement the same atomicity
// contract: the token pair is written and cleared as a unit, and a record
// holding only one half of the pair is treated as corrupt and removed on
// load.
package credstore
