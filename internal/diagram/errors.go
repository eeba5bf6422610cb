/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package diagram

import "errors"

var (
	ErrNothingSelected      = errors.New("nothing selected")
	ErrGroupNeedsTwo        = errors.New("select at least two shapes to group")
	ErrUngroupNeedsGroup    = errors.New("select a single group to ungroup")
	ErrAlignNeedsTwo        = errors.New("select at least two shapes to align")
	ErrDistributeNeedsThree = errors.New("select at least three shapes to distribute")
	ErrUnknownAlignMode     = errors.New("unknown alignment")
)
