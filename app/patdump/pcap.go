// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/tspat/pkg/base"
	"github.com/q191201771/tspat/pkg/mpegts"
)

const rtpFixedHeaderLength = 12

// ReadPcap 读取pcap文件中所有UDP包，去掉可能存在的RTP头之后，将TS数据回调给onTs
//
// 一个可用的UDP包都没有时返回 base.ErrPcapNoPayload
//
func ReadPcap(r io.Reader, onTs func(b []byte)) error {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return err
	}

	n := 0
	source := gopacket.NewPacketSource(pr, pr.LinkType())
	for packet := range source.Packets() {
		udp := packet.Layer(layers.LayerTypeUDP)
		if udp == nil {
			continue
		}
		payload, ok := StripRtp(udp.LayerPayload())
		if !ok {
			continue
		}
		onTs(payload)
		n++
	}

	if n == 0 {
		return nazaerrors.Wrap(base.ErrPcapNoPayload)
	}
	return nil
}

// StripRtp UDP payload如果以sync byte开头并且是整数个ts packet，则直接返回，否则按RTP处理
//
// CSRC和扩展头都会跳过
//
func StripRtp(payload []byte) ([]byte, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	if payload[0] == 0x47 && len(payload)%mpegts.TsPacketSize == 0 {
		return payload, true
	}

	if len(payload) < rtpFixedHeaderLength || payload[0]>>6 != 2 {
		return nil, false
	}
	offset := rtpFixedHeaderLength + 4*int(payload[0]&0xF)
	if payload[0]&0x10 != 0 {
		if len(payload) < offset+4 {
			return nil, false
		}
		offset += 4 + 4*int(bele.BeUint16(payload[offset+2:]))
	}
	if offset >= len(payload) {
		return nil, false
	}
	return payload[offset:], true
}
