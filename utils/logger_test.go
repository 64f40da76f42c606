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

package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLogger_Registry(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("REGISTRY", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("UNKNOWN-LOGGER", "error"))
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "SVC", NameWidth: 6}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"b": 2, "a": 1},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "2025-01-02 03:04:05.000")
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "[   SVC]")
	assert.Contains(t, line, ": slow query a=1 b=2\n")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "SVC"}
	out, err := f.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "connected",
		Data:    logrus.Fields{"error": assert.AnError},
	})
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "SVC", rec["logger"])
	assert.Equal(t, "connected", rec["message"])
	assert.Equal(t, assert.AnError.Error(), rec["fields"].(map[string]interface{})["error"])
}

func TestConfigureOutputAndFormat(t *testing.T) {
	var buf bytes.Buffer
	ConfigureOutput(&buf)
	ConfigureConsoleLogFormat("json")
	t.Cleanup(func() {
		ConfigureConsoleLogFormat("text")
		ConfigureOutput(os.Stdout)
	})

	l := NewLogger("FORMAT")
	l.SetLevel(logrus.InfoLevel)
	l.WithField("k", "v").Info("hello")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "FORMAT", rec["logger"])
	assert.Equal(t, "hello", rec["message"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("DYNABASE_TEST_STR", "x")
	t.Setenv("DYNABASE_TEST_BOOL", "not-a-bool")
	t.Setenv("DYNABASE_TEST_DUR", "150ms")

	assert.Equal(t, "x", EnvDefaultString("DYNABASE_TEST_STR", "d"))
	assert.Equal(t, "d", EnvDefaultString("DYNABASE_TEST_MISSING", "d"))
	assert.True(t, EnvDefaultBool("DYNABASE_TEST_BOOL", true))
	assert.Equal(t, 150*time.Millisecond, EnvDefaultDuration("DYNABASE_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDefaultDuration("DYNABASE_TEST_MISSING", time.Second))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "repository/base.go", shortPath("/src/dynabase/repository/base.go"))
}
