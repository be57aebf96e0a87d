// File: internal/logx/logx.go
// Author: momentics <momentics@gmail.com>
//
// Tagged leveled logging over the standard logger.

package logx

import (
	"fmt"
	"log"
)

// Logger prefixes every line with a component tag and a level.
type Logger struct {
	tag string
}

func New(tag string) *Logger {
	return &Logger{tag: tag}
}

func (l *Logger) with(level, msg string) string {
	return fmt.Sprintf("[%s] [%s] %s", l.tag, level, msg)
}

func (l *Logger) Infof(f string, a ...any)  { log.Println(l.with("INFO", fmt.Sprintf(f, a...))) }
func (l *Logger) Warnf(f string, a ...any)  { log.Println(l.with("WARN", fmt.Sprintf(f, a...))) }
func (l *Logger) Errorf(f string, a ...any) { log.Println(l.with("ERROR", fmt.Sprintf(f, a...))) }
