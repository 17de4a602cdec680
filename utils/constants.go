// File: utils/constants.go
package utils

import "time"

// RevokedTokenPrefix is the prefix used for Redis keys of revoked admin tokens.
const RevokedTokenPrefix = "auth:revoked:"

// InvoiceLockPrefix is the prefix used for Redis invoice lock keys.
const InvoiceLockPrefix = "lock:invoice:"

// LockWaitTimeout bounds how long a writer waits for a busy invoice lock.
const LockWaitTimeout = 5 * time.Second
