package util

import "errors"

// ErrNoActiveInterview 用户没有处于 open 状态的面试会话
var ErrNoActiveInterview = errors.New("no active interview")
