package framework

import (
	"context"
	"fmt"
)

// Step 命名的处理步骤
type Step struct {
	Name string
	Func ProcessorFunc
}

// PreProcessor 函数链处理器
type PreProcessor struct {
	steps []Step
}

// NewPreProcessor 创建函数链处理器
func NewPreProcessor(steps ...Step) *PreProcessor {
	return &PreProcessor{
		steps: steps,
	}
}

// Run 执行函数链，任一步骤返回 error 则立即停止
// 返回的 error 保留原始错误链
func (p *PreProcessor) Run(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %s aborted: %w", step.Name, err)
		}
		if err := step.Func(ctx); err != nil {
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}
	}
	return nil
}
