/*
Copyright (c) Facebook, Inc. and its affiliates.

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

/*
Package clock contains the system clock collaborators of clockset.

Supported functionality includes
  - reading the wall clock through SysClock.Now
  - setting the wall clock through SysClock.Set, which calls settimeofday(2)
    on platforms that have it
  - detecting whether the host already keeps time automatically through AutoSync,
    which asks systemd-timedated for its NTP property

Setting the clock requires CAP_SYS_TIME on Linux and root on macOS.
*/
package clock
