/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package mxr

import (
	"sync"

	"goarrg.com"
	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/internal/util"
)

type state struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var platformInitOnce sync.Once

var instance = state{
	platform: platform{},
	logger:   debug.NewLogger("mxr"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

func SetLogLevel(l uint32) {
	instance.logger.SetLevel(l)
}

/*
InitPlatform replaces the default platform, whose Abort panics, with one
provided by the host application. Only the first call has any effect.
*/
func InitPlatform(platform goarrg.PlatformInterface) {
	platformInitOnce.Do(func() {
		if platform != nil {
			instance.platform = platform
			util.Init(platform)
		}
	})
}

type ErrorDeviceNotFound struct{}

func (ErrorDeviceNotFound) Is(target error) bool {
	_, ok := target.(ErrorDeviceNotFound)
	return ok
}

func (ErrorDeviceNotFound) Error() string {
	return "Device Not Found"
}

type Destroyer interface {
	Destroy()
}
