// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// 版本信息相关
// 一部分版本信息使用了naza.bininfo，见app/patdump

// TspatVersion 整个工程的版本号。注意，该变量由外部脚本修改维护，不要手动在代码中修改
//
const TspatVersion = "v0.1.0"

// ConfVersion patdump的配置文件的版本号
//
const ConfVersion = "v0.1.0"

var (
	TspatLibraryName = "tspat"
	TspatGithubRepo  = "github.com/q191201771/tspat"

	// e.g. tspat v0.1.0 (github.com/q191201771/tspat)
	TspatFullInfo = TspatLibraryName + " " + TspatVersion + " (" + TspatGithubRepo + ")"
)
