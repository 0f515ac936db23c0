package domain

// KeyPrefix is the default key namespace for all docdex keys in the store.
// Overridable via config; every repository receives the effective prefix.
const KeyPrefix = "docdex:"
