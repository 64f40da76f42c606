/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/dynabase/utils"
)

const defaultLoggerName = "DYNABASE"

// LogLevel is the severity threshold of a Logger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logrusLevels = [...]logrus.Level{
	LogLevelDebug: logrus.DebugLevel,
	LogLevelInfo:  logrus.InfoLevel,
	LogLevelWarn:  logrus.WarnLevel,
	LogLevelError: logrus.ErrorLevel,
}

func (l LogLevel) toLogrus() logrus.Level {
	if l < LogLevelDebug || int(l) >= len(logrusLevels) {
		return logrus.DebugLevel
	}
	return logrusLevels[l]
}

func (l LogLevel) String() string {
	text, _ := l.toLogrus().MarshalText()
	return string(text)
}

// Logger is the key/value logging facade used across the module. Fields
// are passed as alternating keys and values.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

type loggerBox struct{ Logger }

var globalLogger atomic.Pointer[loggerBox]

// InitLogger replaces the global logger. A nil logger is ignored.
func InitLogger(log Logger) {
	if log != nil {
		globalLogger.Store(&loggerBox{log})
	}
}

// GetLogger returns the global logger, installing the logrus-backed
// default on first use.
func GetLogger() Logger {
	if box := globalLogger.Load(); box != nil {
		return box.Logger
	}
	globalLogger.CompareAndSwap(nil, &loggerBox{NewDefaultLogger(defaultLoggerName)})
	return globalLogger.Load().Logger
}

// DefaultLogger writes through a named logger from the utils registry, so
// utils.ConfigureLogLevel and utils.ConfigureOutput apply to it.
type DefaultLogger struct {
	logger *utils.Logger
}

func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{logger: utils.NewLogger(name)}
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.logger.SetLevel(level.toLogrus())
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.log(logrus.DebugLevel, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.log(logrus.InfoLevel, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.log(logrus.WarnLevel, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.log(logrus.ErrorLevel, msg, fields)
}

// log pairs fields into logrus.Fields. A trailing key without a value is
// dropped.
func (l *DefaultLogger) log(level logrus.Level, msg string, fields []interface{}) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
	l.logger.WithFields(data).Log(level, msg)
}
