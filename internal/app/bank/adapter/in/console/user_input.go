package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Answer 一組問題與回答
type Answer struct {
	Question string
	Value    string
}

// Answers 依提問順序保存的回答
type Answers []Answer

// Get 依問題取得回答，找不到時回傳空字串
func (a Answers) Get(question string) string {
	for _, ans := range a {
		if ans.Question == question {
			return ans.Value
		}
	}
	return ""
}

// Map 回傳 問題 -> 回答 的對照表
func (a Answers) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, ans := range a {
		m[ans.Question] = ans.Value
	}
	return m
}

// UserInput 在 out 上依序提問，從 in 逐行讀取回答
// Dashboard 的選單與提問共用同一個 UserInput，確保讀取緩衝一致
type UserInput struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewUserInput 建立 UserInput
func NewUserInput(in io.Reader, out io.Writer) *UserInput {
	return &UserInput{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// ReadLine 輸出提示後讀一行 (去除前後空白)
//
// 回傳:
//
//	string: 使用者輸入
//	error: 輸入結束時回傳 io.EOF
func (u *UserInput) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(u.out, prompt); err != nil {
		return "", err
	}
	if !u.scanner.Scan() {
		if err := u.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(u.scanner.Text()), nil
}

// Ask 依序提問，每題格式為 "<問題>: "
// 中途輸入結束時回傳 io.EOF 與已收集的回答
func (u *UserInput) Ask(questions ...string) (Answers, error) {
	answers := make(Answers, 0, len(questions))
	for _, q := range questions {
		v, err := u.ReadLine(q + ": ")
		if err != nil {
			return answers, err
		}
		answers = append(answers, Answer{Question: q, Value: v})
	}
	return answers, nil
}
