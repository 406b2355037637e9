// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package base 提供被其他多个package依赖的基础内容，自身不依赖任何package
package base

import (
	"os"
	"strings"
	"time"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
)

var startTime string

var readableTimeLayout = "2006-01-02 15:04:05.999 Z0700 MST"

// ReadableNowTime 当前时间，可读字符串形式
func ReadableNowTime() string {
	return time.Now().Format(readableTimeLayout)
}

func ParseReadableTime(t string) (time.Time, error) {
	return time.Parse(readableTimeLayout, t)
}

func GetWd() string {
	dir, _ := os.Getwd()
	return dir
}

// LogoutStartInfo
//
// @param log: 应用初始化日志之后的logger
//
func LogoutStartInfo(log nazalog.Logger) {
	log.Infof("     start: %s", startTime)
	log.Infof("        wd: %s", GetWd())
	log.Infof("      args: %s", strings.Join(os.Args, " "))
	log.Infof("   bininfo: %s", bininfo.StringifySingleLine())
	log.Infof("   version: %s", TspatFullInfo)
	log.Infof("    github: %s", TspatGithubRepo)
}

func init() {
	startTime = ReadableNowTime()
}
