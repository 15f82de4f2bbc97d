// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"errors"
	"strings"
	"testing"
)

const testBase62Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func TestNew(t *testing.T) {
	type args struct {
		prefix string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			args: args{
				prefix: "st",
			},
			wantErr: false,
			wantLen: DefaultLen + len("st_"),
		},
		{
			name: "no-prefix",
			args: args{
				prefix: "",
			},
			wantErr: false,
			wantLen: DefaultLen,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.args.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.args.prefix != "" && !strings.HasPrefix(got, tt.args.prefix+"_") {
				t.Errorf("New() = %v, wanted it to start with %v", got, tt.args.prefix)
			}
			if len(got) != tt.wantLen {
				t.Errorf("New() = %v, with len of %d and wanted len of %v", got, len(got), tt.wantLen)
			}
			for _, c := range strings.TrimPrefix(got, tt.args.prefix+"_") {
				if !strings.ContainsRune(testBase62Charset, c) {
					t.Errorf("New() = %v, contains non-base62 char %q", got, c)
				}
			}
		})
	}
}

func TestNewWithLen(t *testing.T) {
	if _, err := NewWithLen("", 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("NewWithLen() error = %v, want %v", err, ErrInvalidLength)
	}
	got, err := NewWithLen("n", 5)
	if err != nil {
		t.Fatalf("NewWithLen() unexpected error: %v", err)
	}
	if len(got) != len("n_")+5 {
		t.Errorf("NewWithLen() = %v, wanted len %d", got, len("n_")+5)
	}
}

func TestNew_unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		got, err := New("")
		if err != nil {
			t.Fatalf("New() unexpected error: %v", err)
		}
		if _, ok := seen[got]; ok {
			t.Fatalf("New() returned duplicate id %s", got)
		}
		seen[got] = struct{}{}
	}
}
