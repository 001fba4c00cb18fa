// Package rollout implements deterministic percentage bucketing for feature rollouts.
//
// A client identifier is hashed with a 32-bit polynomial string hash
// (h = h*31 + c over UTF-16 code units, wrapped on every step) and mapped onto
// one of 100 buckets. A client is inside a rollout of P percent when its bucket
// is lower than P.
//
// Because the bucket of an identifier never changes, the decision is stable
// across evaluations and processes, and raising P only ever adds clients:
//
//	rollout.InRollout(clientID, 10) // true  => rollout.InRollout(clientID, 50) is true too
//
// The hash is compatible with the classic Java/JavaScript string hash, so
// buckets computed here match buckets computed by web clients using
// ((h << 5) - h) + charCode.
package rollout
