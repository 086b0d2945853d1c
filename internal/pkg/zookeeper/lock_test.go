package zookeeper

import "testing"

func TestParseSeqIgnoresGUIDPrefix(t *testing.T) {
	tests := []struct {
		node string
		want int
	}{
		{node: "_c_3f2504e04f8911d39a0c0305e82c3301-lock-0000000001", want: 1},
		{node: "_c_ffffffffffffffffffffffffffffffff-lock-0000000042", want: 42},
		{node: "/fixflow/locks/backlog-flush/_c_00000000-lock-0000000007", want: 7},
		{node: "lock-0000000003", want: 3},
	}
	for _, tt := range tests {
		seq, err := parseSeq(tt.node)
		if err != nil {
			t.Errorf("parseSeq(%q): %v", tt.node, err)
			continue
		}
		if seq != tt.want {
			t.Errorf("parseSeq(%q) = %d, want %d", tt.node, seq, tt.want)
		}
	}
}

func TestParseSeqRejectsMalformedNode(t *testing.T) {
	for _, node := range []string{"lockwithoutsuffix", "lock-abc"} {
		if _, err := parseSeq(node); err == nil {
			t.Errorf("parseSeq(%q): expected an error", node)
		}
	}
}

func TestContenderAheadOrdersBySequenceNotByName(t *testing.T) {
	// 持有者的 guid 字典序靠后，新来者的 guid 字典序靠前。
	// 按名字排序两者都会把自己当成最小节点，必须按序号判定。
	children := []string{
		"_c_ffffffffffffffffffffffffffffffff-lock-0000000001",
		"_c_00000000000000000000000000000000-lock-0000000002",
	}

	holder, err := contenderAhead(children, 1)
	if err != nil {
		t.Fatalf("contenderAhead: %v", err)
	}
	if holder != "" {
		t.Errorf("sequence 1 must hold the lock, got contender %q", holder)
	}

	newcomer, err := contenderAhead(children, 2)
	if err != nil {
		t.Fatalf("contenderAhead: %v", err)
	}
	if newcomer != children[0] {
		t.Errorf("sequence 2 must wait on sequence 1, got %q", newcomer)
	}
}

func TestContenderAheadPicksClosestLowerSequence(t *testing.T) {
	children := []string{
		"_c_aaaa-lock-0000000005",
		"_c_bbbb-lock-0000000001",
		"_c_cccc-lock-0000000003",
	}
	prev, err := contenderAhead(children, 5)
	if err != nil {
		t.Fatalf("contenderAhead: %v", err)
	}
	if prev != "_c_cccc-lock-0000000003" {
		t.Errorf("expected to wait on sequence 3, got %q", prev)
	}
}
