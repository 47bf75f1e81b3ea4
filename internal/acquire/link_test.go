package acquire

import (
	"errors"
	"testing"
)

func TestValue(t *testing.T) {
	cases := map[string]string{
		"@AL,07,01,WBT-201":  "WBT-201",
		"@AL,05,01, 4096 ":   "4096",
		"no comma":           "no comma",
		"@AL,07,02,":         "",
		"@AL,07,03,12,34,56": "56",
	}
	for in, want := range cases {
		if got := value(in); got != want {
			t.Fatalf("value(%q)=%q want %q", in, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cs, addr, err := parseStatus("@AL,CS,4F,8192\r")
	if err != nil || cs != "4F" || addr != 8192 {
		t.Fatalf("parseStatus()=%q,%d,%v", cs, addr, err)
	}
	for _, bad := range []string{"", "@AL,LoginOK", "@AL,CS,4F", "@AL,CS,4F,x", "@AL,CS,4F,1,2"} {
		if _, _, err := parseStatus(bad); !errors.Is(err, ErrUnexpectedResponse) {
			t.Fatalf("parseStatus(%q) err=%v want ErrUnexpectedResponse", bad, err)
		}
	}
}

func TestLink_ReadBlockTimeout(t *testing.T) {
	dev := &fakeDevice{}
	l := newLink(dev)
	if _, err := l.readBlock(16); !errors.Is(err, ErrTransportTimeout) {
		t.Fatalf("err=%v want ErrTransportTimeout", err)
	}

	dev.send([]byte{1, 2, 3})
	dev.pause()
	b, err := l.readBlock(16)
	if err != nil || len(b) != 3 {
		t.Fatalf("readBlock()=%v,%v want 3 bytes", b, err)
	}
}

func TestLink_DrainStopsAtQuiet(t *testing.T) {
	dev := &fakeDevice{}
	dev.reply("one")
	dev.reply("two")
	dev.send([]byte("partial"))
	l := newLink(dev)
	if err := l.drain(); err != nil {
		t.Fatalf("drain() error: %v", err)
	}
	if len(dev.out) != 0 {
		t.Fatalf("pending=%d want 0", len(dev.out))
	}
}
