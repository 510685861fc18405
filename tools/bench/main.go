package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// -------------------- 统计 --------------------

type APITestStats struct {
	mu        sync.Mutex
	total     int
	succeeded int
	failed    int
	latencies []time.Duration
	byPath    map[string]int
}

func NewAPITestStats() *APITestStats {
	return &APITestStats{byPath: make(map[string]int)}
}

func (s *APITestStats) Add(path string, success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if !success {
		s.failed++
		s.byPath[path]++
		return
	}
	s.succeeded++
	s.latencies = append(s.latencies, latency)
}

// percentile 已排序的延迟中取第 p 百分位
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func (s *APITestStats) Report(took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
	var sum time.Duration
	for _, l := range s.latencies {
		sum += l
	}

	fmt.Println("\n=== HTTP API测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 失败: %d\n", s.total, s.succeeded, s.failed)
	if n := len(s.latencies); n > 0 {
		fmt.Printf("延迟 平均: %v P50: %v P95: %v P99: %v 最大: %v\n",
			sum/time.Duration(n),
			percentile(s.latencies, 0.50),
			percentile(s.latencies, 0.95),
			percentile(s.latencies, 0.99),
			s.latencies[n-1],
		)
	}
	if took > 0 {
		fmt.Printf("QPS: %.2f\n", float64(s.succeeded)/took.Seconds())
	}
	for path, n := range s.byPath {
		fmt.Printf("失败 %s: %d\n", path, n)
	}
}

// -------------------- 请求 --------------------

var client = &http.Client{Timeout: 8 * time.Second}

type envelope struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func login(base, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := client.Post(base+"/api/v1/users/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %d %s", resp.StatusCode, env.Code)
	}
	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &auth); err != nil {
		return "", err
	}
	return auth.Token, nil
}

func hit(base, path, token string, stats *APITestStats) {
	req, err := http.NewRequest(http.MethodGet, base+path, nil)
	if err != nil {
		stats.Add(path, false, 0)
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	lat := time.Since(start)
	if err != nil {
		stats.Add(path, false, lat)
		return
	}
	resp.Body.Close()
	stats.Add(path, resp.StatusCode == http.StatusOK, lat)
}

func runHTTPBench(base, token string, concurrency, perGoroutine int) {
	fmt.Println("\n=== HTTP API并发测试开始 ===")
	fmt.Printf("目标: %s 并发: %d 每协程请求: %d\n", base, concurrency, perGoroutine)

	endpoints := []string{"/health"}
	if token != "" {
		endpoints = append(endpoints,
			"/api/v1/posts/feed",
			"/api/v1/posts/story",
			"/api/v1/friends",
			"/api/v1/friends/pending",
			"/api/v1/notifications/count",
		)
	}

	stats := NewAPITestStats()
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				hit(base, endpoints[(id+j)%len(endpoints)], token, stats)
			}
		}(i)
	}
	wg.Wait()
	stats.Report(time.Since(start))
}

// -------------------- 入口 --------------------

func main() {
	base := flag.String("base", "http://localhost:8080", "服务地址")
	concurrency := flag.Int("c", 5, "并发协程数")
	perGoroutine := flag.Int("n", 10, "每协程请求数")
	username := flag.String("user", "", "登录用户名或手机号，留空只压测 /health")
	password := flag.String("password", "", "登录密码")
	flag.Parse()

	fmt.Println("=== Oasis 并发测试 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	var token string
	if *username != "" {
		var err error
		token, err = login(*base, *username, *password)
		if err != nil {
			fmt.Println("登录失败:", err)
			os.Exit(1)
		}
	}

	runHTTPBench(*base, token, *concurrency, *perGoroutine)
	fmt.Println("\n=== 测试完成 ===")
}
