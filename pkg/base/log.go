// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"fmt"
	"strings"

	"github.com/q191201771/naza/pkg/nazalog"
)

// LogDump 控制dump类日志的打印次数
//
// 每张表完整后都dump一次的话，长时间运行的流会刷屏
type LogDump struct {
	log         nazalog.Logger
	debugMaxNum int

	debugCount int
}

// NewLogDump
//
// @param debugMaxNum: 日志最小级别为debug时，使用debug打印日志次数的阈值
func NewLogDump(log nazalog.Logger, debugMaxNum int) LogDump {
	return LogDump{
		log:         log,
		debugMaxNum: debugMaxNum,
	}
}

func (ld *LogDump) ShouldDump() bool {
	switch ld.log.GetOption().Level {
	case nazalog.LevelTrace:
		return true
	case nazalog.LevelDebug:
		if ld.debugCount >= ld.debugMaxNum {
			return false
		}
		ld.debugCount++
		return true
	}
	return false
}

// Outf
//
// 调用之前需调用 ShouldDump
// 将 ShouldDump 独立出来的目的是避免不需要打印日志时， Outf 调用前构造实参的开销，比如
// ld.Outf("%s", pat.DumpString())
// 这个DumpString调用
func (ld *LogDump) Outf(format string, v ...interface{}) {
	ld.log.Out(ld.log.GetOption().Level, 3, fmt.Sprintf(format, v...))
}

// OutLines 多行文本逐行输出，每行一条日志
func (ld *LogDump) OutLines(s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		ld.log.Out(ld.log.GetOption().Level, 3, line)
	}
}
