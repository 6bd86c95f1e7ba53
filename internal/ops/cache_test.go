// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package ops

import (
	"errors"
	"sync"
	"testing"

	"github.com/valyala/fastrand"
)

func TestCacheWriteOnce(t *testing.T) {
	c := NewCache(0)
	if got := c.Put("a", 1, 10); got != 1 {
		t.Errorf("first Put returned %v; want 1", got)
	}
	if got := c.Put("a", 2, 10); got != 1 {
		t.Errorf("second Put returned %v; want the cached 1", got)
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a)=%v,%v; want 1,true", v, ok)
	}
	if !c.Remove("a") {
		t.Errorf("Remove(a)=false; want true")
	}
	if c.Remove("a") {
		t.Errorf("second Remove(a)=true; want false")
	}
	if c.Len() != 0 || c.Used() != 0 {
		t.Errorf("after Remove Len=%d Used=%d; want 0 0", c.Len(), c.Used())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(30)
	c.Put("a", "a", 10)
	c.Put("b", "b", 10)
	c.Put("c", "c", 10)
	c.Get("a") // b is now least recent
	c.Put("d", "d", 10)
	if _, ok := c.Get("b"); ok {
		t.Errorf("b still cached; want evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s evicted; want cached", k)
		}
	}
	if c.Used() != 30 {
		t.Errorf("Used=%d; want 30", c.Used())
	}

	// an oversized entry stays, everything else goes
	c.Put("huge", "huge", 100)
	if c.Len() != 1 {
		t.Errorf("Len=%d after oversized Put; want 1", c.Len())
	}
	if _, ok := c.Get("huge"); !ok {
		t.Errorf("oversized entry evicted; want cached")
	}

	c.SetBudget(0)
	c.Put("e", "e", 1000)
	if c.Len() != 2 {
		t.Errorf("Len=%d with unlimited budget; want 2", c.Len())
	}
	c.Clear()
	if c.Len() != 0 || c.Used() != 0 {
		t.Errorf("after Clear Len=%d Used=%d; want 0 0", c.Len(), c.Used())
	}
}

func TestCacheGetOrLoad(t *testing.T) {
	c := NewCache(0)
	calls := 0
	load := func() (interface{}, int64, error) {
		calls++
		return calls, 1, nil
	}
	for i := 0; i < 3; i++ {
		if v, err := c.GetOrLoad("k", load); err != nil || v != 1 {
			t.Errorf("GetOrLoad=%v,%v; want 1,nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times; want 1", calls)
	}

	errLoad := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (interface{}, int64, error) { return nil, 0, errLoad }); !errors.Is(err, errLoad) {
		t.Errorf("GetOrLoad error %v; want %v", err, errLoad)
	}
	if _, ok := c.Get("bad"); ok {
		t.Errorf("failed load was cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := fastrand.RNG{}
			for i := 0; i < 1000; i++ {
				k := string(rune('a' + rng.Uint32n(26)))
				switch rng.Uint32n(3) {
				case 0:
					c.Put(k, k, int64(1+rng.Uint32n(8)))
				case 1:
					if v, ok := c.Get(k); ok && v != k {
						t.Errorf("Get(%s)=%v", k, v)
					}
				default:
					c.Remove(k)
				}
			}
		}()
	}
	wg.Wait()
	if c.Used() > 64 && c.Len() > 1 {
		t.Errorf("Used=%d with %d entries exceeds budget 64", c.Used(), c.Len())
	}
}
