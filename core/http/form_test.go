package http

import (
	"reflect"
	"testing"
)

func TestDecodeForm(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"plus is space", "message=Hi+there&loveCN=yes", map[string]string{"message": "Hi there", "loveCN": "yes"}},
		{"pair without equals dropped", "a=1&b", map[string]string{"a": "1"}},
		{"empty value dropped", "a=&b=2", map[string]string{"b": "2"}},
		{"empty key kept", "=x", map[string]string{"": "x"}},
		{"bad escape dropped", "a=%zz&b=ok", map[string]string{"b": "ok"}},
		{"bad escape in key dropped", "%G1=v&c=3", map[string]string{"c": "3"}},
		{"invalid utf8 dropped", "bad=%FF&good=%C3%A9", map[string]string{"good": "é"}},
		{"last duplicate wins", "a=1&a=2", map[string]string{"a": "2"}},
		{"split at first equals", "x=y=z", map[string]string{"x": "y=z"}},
		{"percent decoding", "k=a%3Db%26c&msg=%E4%BD%A0%E5%A5%BD", map[string]string{"k": "a=b&c", "msg": "你好"}},
		{"empty body", "", map[string]string{}},
		{"only separators", "&&&", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeForm(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeForm(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func BenchmarkDecodeForm(b *testing.B) {
	body := "message=Hello+from+the+benchmark%21&loveCN=yes&extra=1"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DecodeForm(body)
	}
}
