// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"encoding/json"
	"io/ioutil"

	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/tspat/pkg/mpegts"
)

type Config struct {
	ConfVersion      string         `json:"conf_version"`
	ProgramsMax      int            `json:"programs_max"`
	Dump             bool           `json:"dump"`
	CheckGenerator   bool           `json:"check_generator"`
	VerifyWithAstits bool           `json:"verify_with_astits"`
	Log              nazalog.Option `json:"log"`
}

func LoadConf(confFile string) (*Config, error) {
	rawContent, err := ioutil.ReadFile(confFile)
	if err != nil {
		return nil, err
	}
	return ParseConf(rawContent)
}

// ParseConf 解析json格式的配置，不存在的配置项使用默认值
func ParseConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, err
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, err
	}

	if !j.Exist("programs_max") || config.ProgramsMax <= 0 {
		config.ProgramsMax = mpegts.PatProgramsMaxDefault
	}
	if !j.Exist("log.level") {
		config.Log.Level = nazalog.LevelInfo
	}
	if !j.Exist("log.is_to_stdout") {
		config.Log.IsToStdout = true
	}
	if !j.Exist("log.short_file_flag") {
		config.Log.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.Log.AssertBehavior = nazalog.AssertError
	}

	return &config, nil
}
