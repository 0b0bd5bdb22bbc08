/* Copyright 2025 Bookworm Authors
 *
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

package cmd

import (
	"github.com/bookwormfood/bookworm/pkg/server/app"
	"github.com/bookwormfood/bookworm/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

func purgeUploads(a *app.App) {
	n, err := a.PurgeExpiredUploads()
	if err != nil {
		log.ErrorWrap(err, "purging expired uploads")
		return
	}

	log.WithFields(log.Fields{
		"count": n,
	}).Info("Purged expired uploads.")
}

// scheduleJobs schedules the maintenance jobs of the server. The caller
// starts and stops the returned scheduler.
func scheduleJobs(a *app.App, purgeSchedule string) (*cron.Cron, error) {
	c := cron.New()

	if err := c.AddFunc(purgeSchedule, func() { purgeUploads(a) }); err != nil {
		return nil, errors.Wrapf(err, "scheduling upload purge with '%s'", purgeSchedule)
	}

	return c, nil
}
