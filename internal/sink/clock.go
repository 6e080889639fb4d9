package sink

import "time"

// NowUnix is replaceable in tests.
var NowUnix = func() int64 { return time.Now().Unix() }
