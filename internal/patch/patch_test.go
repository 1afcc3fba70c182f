package patch

import (
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/app.py b/app.py
index abc1234..def5678 100644
--- a/app.py
+++ b/app.py
@@ -1,4 +1,6 @@
 import os
-print("old")
+import logging
+
+logging.info("new")
 x = 1
 y = 2
diff --git a/util.py b/util.py
new file mode 100644
index 0000000..1111111
--- /dev/null
+++ b/util.py
@@ -0,0 +1,3 @@
+def helper():
+    print("debug")
+    return 1
diff --git a/old.py b/old.py
deleted file mode 100644
index 2222222..0000000
--- a/old.py
+++ /dev/null
@@ -1,2 +0,0 @@
-a = 1
-b = 2
`

func TestParse(t *testing.T) {
	set, err := Parse(strings.NewReader(sampleDiff))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(set.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(set.Files))
	}

	f0 := set.Files[0]
	if f0.Name() != "app.py" {
		t.Errorf("expected name 'app.py', got %q", f0.Name())
	}
	if f0.AddedLines != 3 {
		t.Errorf("expected 3 added lines, got %d", f0.AddedLines)
	}
	if f0.DeletedLines != 1 {
		t.Errorf("expected 1 deleted line, got %d", f0.DeletedLines)
	}

	f1 := set.Files[1]
	if !f1.IsNew {
		t.Error("expected util.py to be new")
	}
	if f1.Name() != "util.py" {
		t.Errorf("expected name 'util.py', got %q", f1.Name())
	}
	if f1.AddedLines != 3 {
		t.Errorf("expected 3 added lines, got %d", f1.AddedLines)
	}

	f2 := set.Files[2]
	if !f2.IsDeleted {
		t.Error("expected old.py to be deleted")
	}
	if f2.Name() != "old.py" {
		t.Errorf("expected name 'old.py', got %q", f2.Name())
	}

	files, added, deleted := set.Stats()
	if files != 3 {
		t.Errorf("stats: expected 3 files, got %d", files)
	}
	if added != 6 {
		t.Errorf("stats: expected 6 added, got %d", added)
	}
	if deleted != 3 {
		t.Errorf("stats: expected 3 deleted, got %d", deleted)
	}
}

func TestParseEmpty(t *testing.T) {
	set, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(set.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(set.Files))
	}
}

func TestAddedCode(t *testing.T) {
	set, err := Parse(strings.NewReader(sampleDiff))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	code, lineMap := set.Files[0].AddedCode()
	wantCode := "import logging\n\nlogging.info(\"new\")"
	if code != wantCode {
		t.Errorf("added code = %q, want %q", code, wantCode)
	}
	wantMap := []int{2, 3, 4}
	if len(lineMap) != len(wantMap) {
		t.Fatalf("line map = %v, want %v", lineMap, wantMap)
	}
	for i := range wantMap {
		if lineMap[i] != wantMap[i] {
			t.Errorf("lineMap[%d] = %d, want %d", i, lineMap[i], wantMap[i])
		}
	}

	code, lineMap = set.Files[1].AddedCode()
	if !strings.HasPrefix(code, "def helper():") {
		t.Errorf("new file added code = %q", code)
	}
	if len(lineMap) != 3 || lineMap[0] != 1 || lineMap[2] != 3 {
		t.Errorf("new file line map = %v, want [1 2 3]", lineMap)
	}

	code, lineMap = set.Files[2].AddedCode()
	if code != "" || len(lineMap) != 0 {
		t.Errorf("deleted file should have no added code, got %q %v", code, lineMap)
	}
}

func TestReviewable(t *testing.T) {
	set, err := Parse(strings.NewReader(sampleDiff))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	files := set.Reviewable()
	if len(files) != 2 {
		t.Fatalf("expected 2 reviewable files, got %d", len(files))
	}
	if files[0].Name() != "app.py" || files[1].Name() != "util.py" {
		t.Errorf("reviewable = %q, %q", files[0].Name(), files[1].Name())
	}
}

func TestNameRenamed(t *testing.T) {
	f := &File{IsRenamed: true, OldName: "a.py", NewName: "b.py"}
	if got := f.Name(); got != "a.py → b.py" {
		t.Errorf("renamed name = %q", got)
	}
}
