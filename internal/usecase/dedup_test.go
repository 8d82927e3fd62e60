//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"testing"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/usecase"
)

func TestDedupEngine_Admit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first admission wins, repeat is rejected without error", func(t *testing.T) {
		engine := usecase.NewDedupEngine(newMemDedupRepo())
		c := model.RawCreator{Platform: model.PlatformTikTok, Handle: "JaneDoe"}

		admitted, key, err := engine.Admit(ctx, nil, "job-1", c)
		if err != nil || !admitted {
			t.Fatalf("first Admit = (%v, %v), want admitted", admitted, err)
		}
		if key != "tiktok:janedoe" {
			t.Fatalf("key = %q, want normalized identity", key)
		}

		admitted, _, err = engine.Admit(ctx, nil, "job-1", c)
		if err != nil {
			t.Fatalf("repeat Admit: %v", err)
		}
		if admitted {
			t.Fatal("repeat Admit accepted a duplicate")
		}
	})

	t.Run("handle decorations collapse to one identity", func(t *testing.T) {
		engine := usecase.NewDedupEngine(newMemDedupRepo())
		variants := []string{"JaneDoe", "@janedoe", " janedoe ", "@JANEDOE"}

		admittedCount := 0
		for _, h := range variants {
			admitted, _, err := engine.Admit(ctx, nil, "job-1",
				model.RawCreator{Platform: model.PlatformTikTok, Handle: h})
			if err != nil {
				t.Fatalf("Admit(%q): %v", h, err)
			}
			if admitted {
				admittedCount++
			}
		}
		if admittedCount != 1 {
			t.Fatalf("admitted %d variants, want 1", admittedCount)
		}
	})

	t.Run("same handle on another job or platform is independent", func(t *testing.T) {
		engine := usecase.NewDedupEngine(newMemDedupRepo())
		tiktok := model.RawCreator{Platform: model.PlatformTikTok, Handle: "janedoe"}
		insta := model.RawCreator{Platform: model.PlatformInstagram, Handle: "janedoe"}

		for _, tc := range []struct {
			jobID string
			c     model.RawCreator
		}{
			{"job-1", tiktok},
			{"job-2", tiktok},
			{"job-1", insta},
		} {
			admitted, _, err := engine.Admit(ctx, nil, tc.jobID, tc.c)
			if err != nil || !admitted {
				t.Fatalf("Admit(%s, %s/%s) = (%v, %v), want admitted",
					tc.jobID, tc.c.Platform, tc.c.Handle, admitted, err)
			}
		}
	})

	t.Run("exactly one of N concurrent admissions wins", func(t *testing.T) {
		engine := usecase.NewDedupEngine(newMemDedupRepo())
		c := model.RawCreator{Platform: model.PlatformTikTok, Handle: "contended"}

		const n = 64
		results := make([]bool, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				admitted, _, err := engine.Admit(ctx, nil, "job-1", c)
				if err != nil {
					t.Errorf("Admit: %v", err)
					return
				}
				results[i] = admitted
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, r := range results {
			if r {
				wins++
			}
		}
		if wins != 1 {
			t.Fatalf("%d concurrent admissions won, want exactly 1", wins)
		}
	})
}
