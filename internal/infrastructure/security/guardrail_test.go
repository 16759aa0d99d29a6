package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/dexter/assets"
)

func TestGuardrailRejectsDangerousCommands(t *testing.T) {
	guardrail, err := NewGuardrail("")
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}

	commands := []string{
		"rm -rf /",
		"sudo rm x",
		"dd if=/dev/zero of=/dev/sda",
		"echo a && echo b",
		"   ",
		"mv / /tmp",
		":(){ :|:& };:",
		"mkfs.ext4 /dev/sdb1",
		"cat a | grep b",
		"echo $(whoami)",
		"echo hi > /sys/power/state",
		"f2 -f a -r b; reboot",
	}
	for _, cmd := range commands {
		err := guardrail.Check(cmd)
		if err == nil {
			t.Errorf("expected %q to be rejected", cmd)
			continue
		}
		var rejection *Rejection
		if !errors.As(err, &rejection) {
			t.Errorf("expected *Rejection for %q, got %T", cmd, err)
		}
	}
}

func TestGuardrailAllowsSafeCommand(t *testing.T) {
	guardrail, err := NewGuardrail("")
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}

	for _, cmd := range []string{"ls -la", "f2 -f jpg -r png", "ffmpeg -i in.mov out.mp4"} {
		if err := guardrail.Check(cmd); err != nil {
			t.Errorf("expected %q to pass, got %v", cmd, err)
		}
	}
}

func TestGuardrailExtraRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  danger_patterns:\n    - pattern: '(?i)^shutdown'\n      message: powering off\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	guardrail, err := NewGuardrail(path)
	if err != nil {
		t.Fatalf("NewGuardrail error: %v", err)
	}

	err = guardrail.Check("shutdown now")
	var rejection *Rejection
	if !errors.As(err, &rejection) || rejection.Reason != "powering off" {
		t.Fatalf("expected extra rule rejection, got %v", err)
	}
	if err := guardrail.Check("rm -rf /"); err == nil {
		t.Fatal("built-in rules must still apply")
	}
}

func TestGuardrailMissingRulesFile(t *testing.T) {
	if _, err := NewGuardrail(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing rules file should fall back to built-ins: %v", err)
	}
}

func TestGuardrailInvalidRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  danger_patterns:\n    - pattern: '(['\n      message: broken\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := NewGuardrail(path); err == nil {
		t.Fatal("expected compile error for invalid pattern")
	}
}

func TestGuardrailStarterRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	if err := os.WriteFile(path, assets.DefaultSafetyYAML, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	guardrail, err := NewGuardrail(path)
	if err != nil {
		t.Fatalf("starter rules must compile: %v", err)
	}

	for _, cmd := range []string{"yt-dlp --exec 'rm {}' URL", "pandoc --lua-filter=x.lua a.md -o a.pdf", "f2 -f a -r b /etc/hosts"} {
		if err := guardrail.Check(cmd); err == nil {
			t.Errorf("expected %q to be rejected", cmd)
		}
	}
	for _, cmd := range []string{"f2 -f jpg -r png", "ffmpeg -i in.mov -f mp4 out.mp4", "pandoc a.md -o a.pdf"} {
		if err := guardrail.Check(cmd); err != nil {
			t.Errorf("expected %q to pass, got %v", cmd, err)
		}
	}
}
