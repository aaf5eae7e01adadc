package module

import "testing"

type stubModule struct {
	name  string
	ports any
}

func (s stubModule) Ports() any   { return s.ports }
func (s stubModule) Name() string { return s.name }

var _ Module = stubModule{}

func TestModule_PortsPassThrough(t *testing.T) {
	type portSet struct {
		Name string
		ID   int
	}

	cases := []struct {
		name string
		in   any
	}{
		{"nil ports", nil},
		{"primitive ports", 123},
		{"struct ports", portSet{Name: "harvest", ID: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := stubModule{name: tc.name, ports: tc.in}
			if got := m.Ports(); got != tc.in {
				t.Fatalf("Ports() = %v, want %v", got, tc.in)
			}
		})
	}
}
