/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xboot

import "context"

type ContextKey string

const (
	ServerInfoContextKey = ContextKey("xboot.ServerInfo.ContextKey")
)

// ServerInfo provides handlers access to the backend name and connector the
// serving Server was built with.
type ServerInfo struct {
	Backend   string
	Connector *Connector
}

// ServerInfoFromRequestContext is a utility function to retrieve a *ServerInfo
// reference from the http.Request context during handler processing.
func ServerInfoFromRequestContext(ctx context.Context) *ServerInfo {
	if val := ctx.Value(ServerInfoContextKey); val != nil {
		if info, ok := val.(*ServerInfo); ok {
			return info
		}
	}
	return nil
}
