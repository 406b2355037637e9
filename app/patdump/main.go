// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/tspat/pkg/base"
	"github.com/q191201771/tspat/pkg/mpegts"
	"github.com/q191201771/tspat/pkg/patmon"
)

// 读取TS文件或者抓包文件，打印其中的PAT
// 每个文件单独统计，所有文件都没有完整的PAT时返回1

type Flags struct {
	ConfFile         string
	IsPcap           bool
	CheckGenerator   bool
	VerifyWithAstits bool
	Filenames        []string
}

func main() {
	defer nazalog.Sync()

	flags := parseFlag()
	config := loadConf(flags.ConfFile)
	if flags.CheckGenerator {
		config.CheckGenerator = true
	}
	if flags.VerifyWithAstits {
		config.VerifyWithAstits = true
	}
	initLog(config.Log)
	base.LogoutStartInfo(nazalog.GetGlobalLogger())
	if config.ConfVersion != "" && config.ConfVersion != base.ConfVersion {
		nazalog.Warnf("config version invalid. conf version of patdump=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}

	found := 0
	for _, filename := range flags.Filenames {
		isPcap := flags.IsPcap || strings.HasSuffix(filename, ".pcap")
		if dumpFile(filename, isPcap, config) {
			found++
		}
	}
	if found == 0 {
		nazalog.Errorf("%+v", base.ErrPatmonNoPat)
		nazalog.Sync()
		os.Exit(1)
	}
}

func dumpFile(filename string, isPcap bool, config *Config) bool {
	fp, err := os.Open(filename)
	if err != nil {
		nazalog.Errorf("open file failed. file=%s, err=%+v", filename, err)
		return false
	}
	defer fp.Close()

	m := patmon.NewMonitor(func(option *patmon.MonitorOption) {
		option.ProgramsMax = config.ProgramsMax
		option.CheckGenerator = config.CheckGenerator
		option.VerifyWithAstits = config.VerifyWithAstits
		option.Log = nazalog.GetGlobalLogger()
	}).WithOnPat(func(pat *mpegts.Pat) {
		nazalog.Infof("[%s] pat. transport_stream_id=%d, version=%d, programs=%d",
			filename, pat.TransportStreamId(), pat.VersionNumber(), pat.NumPrograms())
		if config.Dump {
			_, _ = fmt.Fprint(os.Stdout, pat.DumpString())
		}
	})
	defer m.Dispose()

	if isPcap {
		err = ReadPcap(fp, m.Feed)
	} else {
		err = m.FeedReader(fp)
	}
	if err != nil {
		nazalog.Errorf("[%s] read failed. err=%+v", filename, err)
	}
	nazalog.Infof("[%s] stat. %+v", filename, m.Stat())

	pat := m.Pat()
	if pat == nil {
		nazalog.Warnf("[%s] no complete pat.", filename)
		return false
	}
	_, _ = fmt.Fprintf(os.Stdout, "%s:\n%s", filename, pat.DumpString())
	return true
}

func parseFlag() Flags {
	var flags Flags
	binInfoFlag := flag.Bool("v", false, "show bin info")
	flag.StringVar(&flags.ConfFile, "c", "", "specify conf file")
	flag.BoolVar(&flags.IsPcap, "pcap", false, "input files are pcap captures, default by .pcap suffix")
	flag.BoolVar(&flags.CheckGenerator, "check", false, "regenerate every pat and compare with input")
	flag.BoolVar(&flags.VerifyWithAstits, "astits", false, "demux every pat with astits and compare")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.TspatFullInfo)
		os.Exit(0)
	}
	flags.Filenames = flag.Args()
	if len(flags.Filenames) == 0 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/patdump ./testdata/test.ts
  ./bin/patdump -c ./conf/patdump.conf.json -check -astits ./testdata/test.ts
  ./bin/patdump -pcap ./testdata/udp.cap
`)
		os.Exit(1)
	}
	return flags
}

func loadConf(confFile string) *Config {
	var config *Config
	var err error
	if confFile == "" {
		config, err = ParseConf([]byte("{}"))
	} else {
		config, err = LoadConf(confFile)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load conf failed. file=%s err=%+v\n", confFile, err)
		os.Exit(1)
	}
	return config
}

func initLog(opt nazalog.Option) {
	if err := nazalog.Init(func(option *nazalog.Option) {
		*option = opt
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "initial log failed. err=%+v\n", err)
		os.Exit(1)
	}
}
