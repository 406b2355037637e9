// Copyright 2021, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// ----- dump --------------------
var (
	// DumpDebugMaxNum 日志级别为debug时，每个monitor最多dump多少张表
	DumpDebugMaxNum = 8
)
