package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AVR.DevicePath != "/dev/ttyUSB1" {
		t.Errorf("AVR.DevicePath = %q, want default", cfg.AVR.DevicePath)
	}
	if cfg.HDMI.BaudRate != 19200 {
		t.Errorf("HDMI.BaudRate = %d, want 19200", cfg.HDMI.BaudRate)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("avr:\n  device_path: /dev/ttyS5\nhdmi:\n  device_path: /dev/ttyS6\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AVR.DevicePath != "/dev/ttyS5" {
		t.Errorf("AVR.DevicePath = %q, want /dev/ttyS5", cfg.AVR.DevicePath)
	}
	if cfg.HDMI.DevicePath != "/dev/ttyS6" {
		t.Errorf("HDMI.DevicePath = %q, want /dev/ttyS6", cfg.HDMI.DevicePath)
	}
}

func TestValidateRejectsEmptyDevicePath(t *testing.T) {
	cfg := &Config{
		AVR:  AVRConfig{DevicePath: "", BaudRate: 38400},
		HDMI: HDMIConfig{DevicePath: "/dev/ttyUSB0", BaudRate: 19200},
		Web:  WebConfig{Enabled: false},
	}
	if err := validate(cfg); err == nil {
		t.Errorf("validate() should reject an empty AVR device path")
	}
}

func TestValidateRejectsBadWebPort(t *testing.T) {
	cfg := &Config{
		AVR:  AVRConfig{DevicePath: "/dev/ttyUSB1", BaudRate: 38400},
		HDMI: HDMIConfig{DevicePath: "/dev/ttyUSB0", BaudRate: 19200},
		Web:  WebConfig{Enabled: true, Port: 0},
	}
	if err := validate(cfg); err == nil {
		t.Errorf("validate() should reject an out-of-range web port")
	}
}
