package minio

import "testing"

func TestObjectKey(t *testing.T) {
	c := &Client{bucket: "reelstudio", publicURL: "https://cdn.test"}

	key, ok := c.ObjectKey(c.PublicURL("videos/vid_1.mp4"))
	if !ok || key != "videos/vid_1.mp4" {
		t.Fatalf("expected round trip, got %q %v", key, ok)
	}

	for _, url := range []string{
		"https://cdn.test/other-bucket/videos/vid_1.mp4",
		"https://cdn.test/reelstudio/",
		"http://studio.test/uploads/videos/vid_1.mp4",
	} {
		if key, ok := c.ObjectKey(url); ok {
			t.Errorf("ObjectKey(%q) = %q, want no key", url, key)
		}
	}
}
