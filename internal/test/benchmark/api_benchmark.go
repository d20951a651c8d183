package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Scenario 一组并发发送的同类请求，Body按请求序号生成负载（例如每次刷不同的卡）
type Scenario struct {
	Name     string
	Method   string
	Path     string
	Requests int
	Body     func(i int) interface{}
}

// LoadTester 对锁楼接口施加并发压力
type LoadTester struct {
	BaseURL     string
	Concurrency int
	AuthToken   string
	Client      *http.Client
}

// Report 一次场景运行的结果，按HTTP状态码和业务错误码分别统计
type Report struct {
	Scenario    string        `json:"scenario"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Concurrency int           `json:"concurrency"`
	Requests    int           `json:"requests"`
	Elapsed     time.Duration `json:"elapsed"`
	Statuses    map[int]int   `json:"statuses"`
	Codes       map[int]int   `json:"codes"`
	Errors      []string      `json:"errors"`

	latencies []time.Duration
}

type outcome struct {
	latency time.Duration
	status  int
	code    int
	err     error
}

// NewLoadTester 创建压测客户端
func NewLoadTester(baseURL string, concurrency int, authToken string) *LoadTester {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &LoadTester{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		AuthToken:   authToken,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Login 登录并返回令牌
func (lt *LoadTester) Login(username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := lt.Client.Post(lt.BaseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var login struct {
		Message string `json:"message"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("解析登录响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK || login.Data.Token == "" {
		return "", fmt.Errorf("登录失败: %d %s", resp.StatusCode, login.Message)
	}
	return login.Data.Token, nil
}

// Run 按并发上限发送场景中的全部请求
func (lt *LoadTester) Run(s Scenario) *Report {
	report := &Report{
		Scenario:    s.Name,
		Method:      s.Method,
		URL:         lt.BaseURL + s.Path,
		Concurrency: lt.Concurrency,
		Requests:    s.Requests,
		Statuses:    make(map[int]int),
		Codes:       make(map[int]int),
	}

	outcomes := make(chan outcome, s.Requests)
	slots := make(chan struct{}, lt.Concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < s.Requests; i++ {
		var payload interface{}
		if s.Body != nil {
			payload = s.Body(i)
		}
		wg.Add(1)
		go func(payload interface{}) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()
			outcomes <- lt.send(s.Method, report.URL, payload)
		}(payload)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err != nil {
			report.Errors = append(report.Errors, o.err.Error())
			continue
		}
		report.latencies = append(report.latencies, o.latency)
		report.Statuses[o.status]++
		report.Codes[o.code]++
	}
	report.Elapsed = time.Since(start)
	sort.Slice(report.latencies, func(i, j int) bool { return report.latencies[i] < report.latencies[j] })
	return report
}

// send 发送单个请求并解析响应信封中的业务码
func (lt *LoadTester) send(method, url string, payload interface{}) outcome {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return outcome{err: fmt.Errorf("JSON编码错误: %v", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return outcome{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if lt.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+lt.AuthToken)
	}

	start := time.Now()
	resp, err := lt.Client.Do(req)
	if err != nil {
		return outcome{err: err}
	}
	defer resp.Body.Close()

	var env struct {
		Code int `json:"code"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{err: err}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return outcome{err: fmt.Errorf("%d: 响应不是JSON信封: %v", resp.StatusCode, err)}
	}
	return outcome{latency: time.Since(start), status: resp.StatusCode, code: env.Code}
}

// Count 指定HTTP状态码的响应数
func (r *Report) Count(status int) int {
	return r.Statuses[status]
}

// CodeCount 指定业务错误码的响应数
func (r *Report) CodeCount(code int) int {
	return r.Codes[code]
}

// Succeeded 2xx响应数
func (r *Report) Succeeded() int {
	n := 0
	for status, count := range r.Statuses {
		if status >= 200 && status < 300 {
			n += count
		}
	}
	return n
}

// SuccessRate 成功请求占比（百分比）
func (r *Report) SuccessRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Succeeded()) / float64(r.Requests) * 100
}

// Percentile 返回延迟分位数，p取值0到100
func (r *Report) Percentile(p float64) time.Duration {
	if len(r.latencies) == 0 {
		return 0
	}
	idx := int(float64(len(r.latencies)-1) * p / 100)
	return r.latencies[idx]
}

// Print 打印压测结果
func (r *Report) Print() {
	fmt.Printf("[%s] %s %s\n", r.Scenario, r.Method, r.URL)
	fmt.Printf("  并发 %d，请求 %d，耗时 %s，每秒 %.2f\n", r.Concurrency, r.Requests, r.Elapsed, float64(r.Requests)/r.Elapsed.Seconds())
	fmt.Printf("  延迟 p50 %s，p95 %s，max %s\n", r.Percentile(50), r.Percentile(95), r.Percentile(100))
	fmt.Printf("  状态码 %v，业务码 %v\n", r.Statuses, r.Codes)
	for i, err := range r.Errors {
		if i >= 5 {
			fmt.Printf("  ... 还有 %d 个错误\n", len(r.Errors)-5)
			break
		}
		fmt.Printf("  %s\n", err)
	}
}
