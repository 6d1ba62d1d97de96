package pipeline

import (
	"strconv"
	"sync"
	"time"
)

// IDSource はミリ秒単位の時刻から、プロセス内で狭義単調増加する ID を払い出します。
// 同じミリ秒や時計の巻き戻りでは直前の値 +1 を使います。
type IDSource struct {
	mu   sync.Mutex
	last int64
}

// Next は now に基づく次の ID を返します。
func (s *IDSource) Next(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return strconv.FormatInt(ms, 10)
}

var processIDs = &IDSource{}
